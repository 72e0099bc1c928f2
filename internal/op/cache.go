package op

import (
	"context"
	"fmt"
	"time"
)

func InitCache() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := settingRefreshCache(ctx); err != nil {
		return fmt.Errorf("setting refresh cache error: %v", err)
	}
	if err := credentialRefreshCache(ctx); err != nil {
		return fmt.Errorf("credential refresh cache error: %v", err)
	}
	if err := modelConfRefreshCache(ctx); err != nil {
		return fmt.Errorf("model config refresh cache error: %v", err)
	}
	return nil
}

func SaveCache() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return CredentialSaveDB(ctx)
}
