package pdf

import (
	"context"
	"io"

	"github.com/kpauljoseph/cardsheet/internal/layout"
)

type SheetComposer interface {
	Compose(ctx context.Context, src *CardSource, plan *layout.Layout, w io.Writer) error
	ComposeFile(ctx context.Context, src *CardSource, plan *layout.Layout, outputPath string) error
}

var _ SheetComposer = (*Composer)(nil)
