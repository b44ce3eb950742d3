// Package pg provides PostgreSQL connection pooling via pgx, goose schema
// migrations, a readiness probe, and error classification helpers shared by
// the postgres-backed stores.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
package pg
