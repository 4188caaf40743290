package pipeline

import (
	"context"

	"vidbatch/internal/merger"
	"vidbatch/internal/model"
	"vidbatch/internal/progress"
)

// Resolver fetches metadata for one video reference.
type Resolver interface {
	BasicInfo(ctx context.Context, url string) (model.VideoInfo, error)
	FullInfo(ctx context.Context, url string) (model.VideoMetadata, error)
}

// Fetcher writes one stream of a video to dest. onProgress receives the
// cumulative byte count and the total (0 when unknown).
type Fetcher interface {
	Fetch(ctx context.Context, url string, stream model.StreamDescriptor, dest string, onProgress func(done, total int64)) error
}

// Backend is a metadata source that can also transfer streams. Both the
// native client and the yt-dlp driver implement it.
type Backend interface {
	Resolver
	Fetcher
}

// Merger muxes split tracks. *merger.Merger implements it.
type Merger interface {
	Merge(ctx context.Context, req merger.Request, report func(progress.Update)) error
}
