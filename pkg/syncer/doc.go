// Package syncer mirrors scraping job exports into a local directory.
//
// A run lists the scraping jobs of one sitemap (or of every sitemap) through
// the paginated job list, keeps the finished ones and hands each export to a
// worker pool that downloads it next to the others:
//
//	client, _ := webscraper.NewClientFromConfig(cfg, log)
//	store, _ := storage.NewManager(cfg.Output.BaseDirectory)
//
//	s := syncer.New(client, store, nil, log)
//	summary, err := s.Run(ctx, syncer.Options{
//	    SitemapID: 42,
//	    Format:    webscraper.FormatCSV,
//	    Workers:   3,
//	})
//
// Exports already on disk are skipped unless Overwrite is set. Files are
// named scraping-job-{id}.{format}. WriteMetadata adds a .meta.json file
// describing the job next to each new export.
//
// With a checkpoint manager attached, progress is saved after every queued
// export and every finished download. A later run with Resume skips the
// recorded exports; the checkpoint is removed once a run completes without
// failures.
package syncer
