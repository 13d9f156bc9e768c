package downloader

import "github.com/hashicorp/go-getter"

type Downloader struct {
	cacheDir string
	progress getter.ProgressTracker
}

type Option func(d *Downloader)
