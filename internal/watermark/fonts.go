package watermark

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFontFamily is used when a requested family is unknown.
const DefaultFontFamily = "go-regular"

// FontLibrary holds parsed truetype fonts by family name. The built-in Go
// fonts are always available; additional TTF files can be loaded from a
// directory at startup. The library is read-only after construction apart
// from the face cache, which is guarded.
type FontLibrary struct {
	fonts map[string]*truetype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	family string
	size   float64
}

func NewFontLibrary() (*FontLibrary, error) {
	lib := &FontLibrary{
		fonts: make(map[string]*truetype.Font),
		faces: make(map[faceKey]font.Face),
	}

	builtin := map[string][]byte{
		DefaultFontFamily: goregular.TTF,
		"go-bold":         gobold.TTF,
		"go-italic":       goitalic.TTF,
		"go-mono":         gomono.TTF,
	}
	for name, data := range builtin {
		f, err := truetype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse builtin font %s: %w", name, err)
		}
		lib.fonts[name] = f
	}

	return lib, nil
}

// LoadDir registers every .ttf file found in dir under its base name.
// Missing directories are not an error; individual parse failures are
// reported but do not stop the remaining files.
func (l *FontLibrary) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read font dir: %w", err)
	}

	var errs []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".ttf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", e.Name(), err))
			continue
		}
		f, err := truetype.Parse(data)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", e.Name(), err))
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		l.fonts[strings.ToLower(name)] = f
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to load fonts: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Face returns a font face for the family at the given pixel size, falling
// back to the default family when the requested one is unknown.
func (l *FontLibrary) Face(family string, size float64) font.Face {
	if size <= 0 {
		size = 1
	}
	name := strings.ToLower(strings.TrimSpace(family))
	if _, ok := l.fonts[name]; !ok {
		name = DefaultFontFamily
	}

	key := faceKey{family: name, size: size}

	l.mu.Lock()
	defer l.mu.Unlock()
	if face, ok := l.faces[key]; ok {
		return face
	}
	face := truetype.NewFace(l.fonts[name], &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	l.faces[key] = face
	return face
}
