package app

import (
	"context"
	"errors"

	"price-history-engine/internal/engine"
	"price-history-engine/internal/service"
	"price-history-engine/internal/storage"
	"price-history-engine/internal/timeline"
)

// Refresh 对单个 ASIN 执行一次抓取、对账与落库。
func (a *App) Refresh(ctx context.Context, opts RefreshOptions) error {
	if opts.ASIN == "" {
		return errors.New("asin 不能为空")
	}

	var store *storage.Store
	var closeStore func()
	var err error
	var historyStore storage.HistoryStore
	var runStore storage.RunStore

	if opts.DryRun {
		a.Logger.Warn().Msg("refresh dry-run：不会写入数据库")
	} else {
		store, closeStore, err = a.openStore(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("database.dsn 未配置，无法落库")
		}
		if closeStore != nil {
			defer closeStore()
		}
		historyStore = store
		runStore = store
	}

	engineOpts, err := a.engineOptions(timeline.GranularityRaw, timeline.RangeAllTime)
	if err != nil {
		return err
	}

	svc := service.New(a.Config, nil, a.newFetcher(), engine.New(a.Logger), historyStore, runStore, nil, engineOpts, a.Logger)

	result, err := svc.RefreshProduct(ctx, opts.ASIN)
	if err != nil {
		a.Logger.Error().Err(err).Str("asin", opts.ASIN).Msg("刷新失败")
		return err
	}

	funnel := result.Quality.BuyBox
	a.Logger.Info().Str("asin", opts.ASIN).
		Int("records", len(result.Records)).
		Int("buybox_candidates", funnel.Candidates).
		Int("buybox_accepted", funnel.Accepted).
		Msg("刷新完成")
	return nil
}
