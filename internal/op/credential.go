package op

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/db"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/model"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/utils/cache"
)

var credentialCache = cache.New[int, model.Credential](16)
var credentialDirty = make(map[int]struct{})
var credentialDirtyLock sync.Mutex

func credentialRefreshCache(ctx context.Context) error {
	var creds []model.Credential
	if err := db.GetDB().WithContext(ctx).Find(&creds).Error; err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	credentialCache.Clear()
	for _, c := range creds {
		credentialCache.Set(c.ID, c)
	}
	return nil
}

func CredentialList(ctx context.Context) ([]model.Credential, error) {
	creds := make([]model.Credential, 0, credentialCache.Len())
	for _, c := range credentialCache.GetAll() {
		creds = append(creds, c)
	}
	sort.Slice(creds, func(i, j int) bool { return creds[i].ID < creds[j].ID })
	return creds, nil
}

// CredentialListUsable returns non-dead credentials ordered least
// used first, seeding rotation fairness.
func CredentialListUsable(ctx context.Context) ([]model.Credential, error) {
	creds := make([]model.Credential, 0, credentialCache.Len())
	for _, c := range credentialCache.GetAll() {
		if c.Status == model.CredentialStatusDead {
			continue
		}
		creds = append(creds, c)
	}
	sort.Slice(creds, func(i, j int) bool {
		if creds[i].UseCount != creds[j].UseCount {
			return creds[i].UseCount < creds[j].UseCount
		}
		return creds[i].ID < creds[j].ID
	})
	return creds, nil
}

func CredentialGet(id int, ctx context.Context) (model.Credential, error) {
	cred, ok := credentialCache.Get(id)
	if !ok {
		return model.Credential{}, fmt.Errorf("credential not found")
	}
	return cred, nil
}

func CredentialCreate(cred *model.Credential, ctx context.Context) error {
	if err := db.GetDB().WithContext(ctx).Create(cred).Error; err != nil {
		return err
	}
	credentialCache.Set(cred.ID, *cred)
	return nil
}

func CredentialDelete(id int, ctx context.Context) error {
	if _, ok := credentialCache.Get(id); !ok {
		return fmt.Errorf("credential not found")
	}
	if err := db.GetDB().WithContext(ctx).Delete(&model.Credential{ID: id}).Error; err != nil {
		return err
	}
	credentialCache.Del(id)
	credentialDirtyLock.Lock()
	delete(credentialDirty, id)
	credentialDirtyLock.Unlock()
	return nil
}

// CredentialSetStatus persists status and last_tested_at immediately.
// Health transitions are the one write that must not wait for the
// periodic flush.
func CredentialSetStatus(ctx context.Context, id int, status model.CredentialStatus) error {
	cred, ok := credentialCache.Get(id)
	if !ok {
		return fmt.Errorf("credential not found")
	}
	now := time.Now().Unix()
	if err := db.GetDB().WithContext(ctx).Model(&model.Credential{ID: id}).
		Updates(map[string]any{"status": status, "last_tested_at": now}).Error; err != nil {
		return err
	}
	cred.Status = status
	cred.LastTestedAt = now
	credentialCache.Set(id, cred)
	return nil
}

// CredentialTouch bumps use_count/last_used_at in the cache only and
// marks the row for the next CredentialSaveDB flush.
func CredentialTouch(ctx context.Context, id int) error {
	cred, ok := credentialCache.Get(id)
	if !ok {
		return fmt.Errorf("credential not found")
	}
	cred.UseCount++
	cred.LastUsedAt = time.Now().Unix()
	credentialCache.Set(id, cred)
	credentialDirtyLock.Lock()
	credentialDirty[id] = struct{}{}
	credentialDirtyLock.Unlock()
	return nil
}

// CredentialSaveDB writes use counters updated at runtime back to the
// database. Runs on a periodic task and at shutdown.
func CredentialSaveDB(ctx context.Context) error {
	credentialDirtyLock.Lock()
	ids := make([]int, 0, len(credentialDirty))
	for id := range credentialDirty {
		ids = append(ids, id)
	}
	credentialDirty = make(map[int]struct{})
	credentialDirtyLock.Unlock()

	if len(ids) == 0 {
		return nil
	}

	dbConn := db.GetDB().WithContext(ctx)
	for _, id := range ids {
		cred, ok := credentialCache.Get(id)
		if !ok {
			continue
		}
		if err := dbConn.Model(&model.Credential{ID: id}).
			Updates(map[string]any{"use_count": cred.UseCount, "last_used_at": cred.LastUsedAt}).Error; err != nil {
			return err
		}
	}
	return nil
}

// CredentialSaveDBTask wraps CredentialSaveDB for the task runner.
func CredentialSaveDBTask() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = CredentialSaveDB(ctx)
}

// CredentialStore adapts the op layer to rotation.Store.
type CredentialStore struct{}

func (CredentialStore) ListUsable(ctx context.Context) ([]model.Credential, error) {
	return CredentialListUsable(ctx)
}

func (CredentialStore) ListAll(ctx context.Context) ([]model.Credential, error) {
	return CredentialList(ctx)
}

func (CredentialStore) Get(ctx context.Context, id int) (model.Credential, error) {
	return CredentialGet(id, ctx)
}

func (CredentialStore) MarkAlive(ctx context.Context, id int) error {
	return CredentialSetStatus(ctx, id, model.CredentialStatusAlive)
}

func (CredentialStore) MarkDead(ctx context.Context, id int) error {
	return CredentialSetStatus(ctx, id, model.CredentialStatusDead)
}

func (CredentialStore) Touch(ctx context.Context, id int) error {
	return CredentialTouch(ctx, id)
}
