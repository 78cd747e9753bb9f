package chips

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/matzehuels/hdlviz/pkg/cache"
	hdlerrors "github.com/matzehuels/hdlviz/pkg/errors"
	"github.com/matzehuels/hdlviz/pkg/hdl"
	"github.com/matzehuels/hdlviz/pkg/observability"
)

// Dir resolves a chip type from the definition file "<Root>/<chip>.hdl".
//
// Widths read from a file are cached under the hash of the file's content,
// so an edited sibling is parsed again while an unchanged one is not. Cache
// and Keyer are optional.
type Dir struct {
	Root   string
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// Resolve parses the sibling definition of chip and returns its IN and OUT
// widths. A missing file wraps [ErrNotFound]; a file that is not valid HDL
// is a PARSE_ERROR.
func (d *Dir) Resolve(ctx context.Context, chip string) (PortWidths, error) {
	if err := hdlerrors.ValidateChipName(chip); err != nil {
		return PortWidths{}, err
	}

	path := filepath.Join(d.Root, chip+".hdl")
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return PortWidths{}, fmt.Errorf("%w: %s", ErrNotFound, chip)
	}
	if err != nil {
		return PortWidths{}, fmt.Errorf("read %s: %w", path, err)
	}

	key := d.keyer().WidthKey(chip, cache.Hash(src))
	if pw, ok := d.cached(ctx, key); ok {
		d.debug("sibling widths (cached)", "chip", chip)
		return pw, nil
	}

	m, err := hdl.Parse(filepath.Base(path), src)
	if err != nil {
		return PortWidths{}, err
	}
	pw := FromModule(m)
	d.store(ctx, key, pw)
	d.debug("sibling widths", "chip", chip, "inputs", len(pw.Inputs), "outputs", len(pw.Outputs))
	return pw, nil
}

// FromModule extracts the IN and OUT widths declared by a module.
func FromModule(m *hdl.Module) PortWidths {
	return PortWidths{
		Inputs:  m.Widths(hdl.KindIn),
		Outputs: m.Widths(hdl.KindOut),
	}
}

func (d *Dir) keyer() cache.Keyer {
	if d.Keyer == nil {
		return cache.NewDefaultKeyer()
	}
	return d.Keyer
}

func (d *Dir) cached(ctx context.Context, key string) (PortWidths, bool) {
	if d.Cache == nil {
		return PortWidths{}, false
	}
	data, hit, err := d.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "widths")
		return PortWidths{}, false
	}
	var pw PortWidths
	if err := msgpack.Unmarshal(data, &pw); err != nil {
		observability.Cache().OnCacheMiss(ctx, "widths")
		return PortWidths{}, false
	}
	observability.Cache().OnCacheHit(ctx, "widths")
	return pw, true
}

func (d *Dir) store(ctx context.Context, key string, pw PortWidths) {
	if d.Cache == nil {
		return
	}
	data, err := msgpack.Marshal(&pw)
	if err != nil {
		return
	}
	if err := d.Cache.Set(ctx, key, data, cache.TTLWidths); err != nil {
		d.debug("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "widths", len(data))
}

func (d *Dir) debug(msg string, kv ...any) {
	if d.Logger != nil {
		d.Logger.Debug(msg, kv...)
	}
}
