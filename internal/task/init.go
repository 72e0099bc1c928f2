package task

import (
	"context"
	"time"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/model"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/op"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/rotation"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/utils/log"
)

const (
	TaskCredentialSave = "credential_save"
	TaskCredentialTest = "credential_test"
)

func Init(mgr *rotation.Manager) {
	saveIntervalMinutes, err := op.SettingGetInt(model.SettingKeyCredentialSaveInterval)
	if err != nil {
		log.Errorf("failed to get credential save interval: %v", err)
		return
	}
	Register(TaskCredentialSave, time.Duration(saveIntervalMinutes)*time.Minute, false, op.CredentialSaveDBTask)

	// The sweep covers non-dead credentials only: a dead one comes
	// back through an explicit admin test, never through the timer.
	// Interval 0 disables the sweep entirely.
	testIntervalHours, err := op.SettingGetInt(model.SettingKeyCredentialTestInterval)
	if err != nil {
		log.Warnf("failed to get credential test interval: %v", err)
		return
	}
	Register(TaskCredentialTest, time.Duration(testIntervalHours)*time.Hour, false, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		mgr.Sweep(ctx)
	})
}
