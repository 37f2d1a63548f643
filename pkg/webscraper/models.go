package webscraper

import "encoding/json"

// SitemapDefinition is the sitemap document accepted by create and update.
// It is sent to the API unchanged.
type SitemapDefinition = json.RawMessage

// CreatedSitemap is returned when a sitemap is created
type CreatedSitemap struct {
	ID int `json:"id"`
}

// Sitemap is a saved scraping configuration
type Sitemap struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	// Sitemap is the definition as a JSON encoded string
	Sitemap string `json:"sitemap"`
}

// SitemapSummary is a row of the sitemap list
type SitemapSummary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ScrapingJobConfig describes a scraping job to start
type ScrapingJobConfig struct {
	SitemapID       int      `json:"sitemap_id"`
	Driver          string   `json:"driver,omitempty"`
	PageLoadDelay   int      `json:"page_load_delay,omitempty"`
	RequestInterval int      `json:"request_interval,omitempty"`
	Proxy           int      `json:"proxy,omitempty"`
	StartURLs       []string `json:"start_urls,omitempty"`
	CustomID        string   `json:"custom_id,omitempty"`
}

// CreatedScrapingJob is returned when a scraping job is created
type CreatedScrapingJob struct {
	ID int `json:"id"`
}

// Scraping job statuses reported by the API
const (
	JobStatusWaitingToBeScheduled = "waiting-to-be-scheduled"
	JobStatusScheduled            = "scheduled"
	JobStatusStarted              = "started"
	JobStatusFinished             = "finished"
	JobStatusFailed               = "failed"
	JobStatusStopped              = "stopped"
	JobStatusShelved              = "shelved"
)

// ScrapingJob is one execution run of a sitemap
type ScrapingJob struct {
	ID                int     `json:"id"`
	SitemapName       string  `json:"sitemap_name"`
	Status            string  `json:"status"`
	SitemapID         int     `json:"sitemap_id"`
	TestRun           int     `json:"test_run"`
	JobsScheduled     int     `json:"jobs_scheduled"`
	JobsExecuted      int     `json:"jobs_executed"`
	JobsFailed        int     `json:"jobs_failed"`
	JobsEmpty         int     `json:"jobs_empty"`
	StoredRecordCount int     `json:"stored_record_count"`
	RequestInterval   int     `json:"request_interval"`
	PageLoadDelay     int     `json:"page_load_delay"`
	Driver            string  `json:"driver"`
	Scheduled         int     `json:"scheduled"`
	CustomID          *string `json:"custom_id"`
	ScrapingDuration  int     `json:"scraping_duration"`
	TimeCreated       int64   `json:"time_created"`
}

// Done reports whether the job reached a state it will not leave on its own
func (j *ScrapingJob) Done() bool {
	switch j.Status {
	case JobStatusFinished, JobStatusFailed, JobStatusStopped, JobStatusShelved:
		return true
	}
	return false
}

// Progress returns executed / scheduled pages in [0,1]
func (j *ScrapingJob) Progress() float64 {
	if j.JobsScheduled <= 0 {
		if j.Status == JobStatusFinished {
			return 1
		}
		return 0
	}
	p := float64(j.JobsExecuted) / float64(j.JobsScheduled)
	if p > 1 {
		p = 1
	}
	return p
}

// ListScrapingJobsOptions filters the scraping job list
type ListScrapingJobsOptions struct {
	// SitemapID limits the list to jobs of one sitemap; 0 lists all
	SitemapID int
}

// ProblematicURL is a page that failed or came back empty during a job
type ProblematicURL struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// QualityCheck is a single data quality measurement
type QualityCheck struct {
	Got      float64 `json:"got"`
	Expected float64 `json:"expected"`
	Success  bool    `json:"success"`
}

// DataQuality is the data quality report of a finished scraping job
type DataQuality struct {
	MinRecordCount            QualityCheck            `json:"min_record_count"`
	MaxFailedPagesPercent     QualityCheck            `json:"max_failed_pages_percent"`
	MaxEmptyPagesPercent      QualityCheck            `json:"max_empty_pages_percent"`
	MinColumnRecords          map[string]QualityCheck `json:"min_column_records"`
	OverallDataQualitySuccess bool                    `json:"overall_data_quality_success"`
}

// SchedulerConfig is a sitemap's recurring scraping schedule
type SchedulerConfig struct {
	SchedulerEnabled bool   `json:"scheduler_enabled,omitempty"`
	CronMinute       string `json:"cron_minute"`
	CronHour         string `json:"cron_hour"`
	CronDay          string `json:"cron_day"`
	CronMonth        string `json:"cron_month"`
	CronWeekday      string `json:"cron_weekday"`
	CronTimezone     string `json:"cron_timezone"`
	RequestInterval  int    `json:"request_interval"`
	PageLoadDelay    int    `json:"page_load_delay"`
	Driver           string `json:"driver"`
	Proxy            int    `json:"proxy"`
}

// AccountInfo describes the token owner and remaining page credits
type AccountInfo struct {
	Email       string `json:"email"`
	Firstname   string `json:"firstname"`
	Lastname    string `json:"lastname"`
	PageCredits int    `json:"page_credits"`
}
