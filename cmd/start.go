package cmd

import (
	"os"
	"time"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/conf"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/db"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/exchange"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/op"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/quota"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/rotation"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/server/handlers"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/task"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/utils/log"
	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/utils/shutdown"
	"github.com/spf13/cobra"
)

var cfgFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start " + conf.APP_NAME,
	PreRun: func(cmd *cobra.Command, args []string) {
		conf.PrintBanner()
		if err := conf.Load(cfgFile); err != nil {
			log.Errorf("config load error: %v", err)
			os.Exit(1)
		}
		log.SetLevel(conf.AppConfig.Log.Level)
	},
	Run: func(cmd *cobra.Command, args []string) {
		shutdown.Init(log.Logger)
		defer shutdown.Listen()
		if err := db.InitDB(conf.AppConfig.Database.Type, conf.AppConfig.Database.Path, conf.IsDebug()); err != nil {
			log.Errorf("database init error: %v", err)
			return
		}
		shutdown.Register(db.Close)

		if err := op.InitCache(); err != nil {
			log.Errorf("cache init error: %v", err)
			return
		}
		shutdown.Register(op.SaveCache)

		if err := op.UserInit(); err != nil {
			log.Errorf("user init error: %v", err)
			return
		}

		upstream := conf.AppConfig.Upstream
		exchanger := exchange.New(upstream.ExchangeURL, time.Duration(upstream.TimeoutSeconds)*time.Second)
		manager := rotation.NewManager(
			op.CredentialStore{},
			exchanger,
			time.Duration(upstream.TokenMarginMinutes)*time.Minute,
			rotation.Fallback{Label: upstream.FallbackLabel, Secret: upstream.FallbackSecret},
		)

		loc, err := time.LoadLocation(conf.AppConfig.Quota.Timezone)
		if err != nil {
			log.Warnf("invalid quota timezone %q, using UTC: %v", conf.AppConfig.Quota.Timezone, err)
			loc = time.UTC
		}
		ledger := quota.NewLedger(op.UsageStore{}, quota.LimitFunc(func(modelID string) int {
			return op.TierResolver().DailyLimit(modelID)
		}), loc)

		handlers.SetCore(manager, ledger)

		if err := server.Start(); err != nil {
			log.Errorf("server start error: %v", err)
			return
		}
		shutdown.Register(server.Close)

		task.Init(manager)
		go task.Run()
	},
}

func init() {
	startCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./data/config.json)")
	rootCmd.AddCommand(startCmd)
}
