// Package webscraper is a client for the Web Scraper cloud API.
//
// A Client sends every call through a Transport, which injects the API
// token and default headers, and an Executor, which retries rate limited
// calls and unwraps the {"success": ..., "data": ...} envelope:
//
//	client, err := webscraper.NewClient(webscraper.Options{Token: token})
//	if err != nil {
//		return err
//	}
//
//	job, err := client.GetScrapingJob(ctx, 500)
//
// A 429 response is retried after its Retry-After header plus one second,
// at most three attempts in total (one when backoff is disabled). Any other
// non-200 status, a network failure or an unsuccessful envelope is returned
// as a *errors.Error without retrying. The wait blocks the calling
// goroutine and ends early when ctx is cancelled.
//
// List operations return an Iterator that fetches pages on demand:
//
//	it := client.GetSitemaps()
//	for key, sitemap := range it.All(ctx) {
//		fmt.Println(key, sitemap.Name)
//	}
//	if err := it.Err(); err != nil {
//		return err
//	}
//
// Exports are streamed to disk without passing through the envelope:
//
//	err = client.DownloadScrapingJob(ctx, 500, webscraper.FormatJSON, "/tmp/job.json", webscraper.DownloadOptions{})
package webscraper
