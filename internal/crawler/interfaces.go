package crawler

import "context"

// ImageHarvester lists the image URLs referenced by a page.
type ImageHarvester interface {
	Harvest(ctx context.Context, pageURL string) []string
}

// ImageDownloader stores one image locally and returns its path.
type ImageDownloader interface {
	Download(ctx context.Context, imageURL string) (string, error)
}
