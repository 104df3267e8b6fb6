package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"
	"testing"

	"watermark-processor/internal/domain"
	"watermark-processor/internal/watermark"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

type fakeStorage struct {
	objects map[string][]byte
	saved   map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects: make(map[string][]byte),
		saved:   make(map[string][]byte),
	}
}

func (f *fakeStorage) GetObject(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := f.objects[path]
	if !ok {
		return nil, fmt.Errorf("object %s not found", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStorage) SaveRendered(_ context.Context, path string, data io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.saved[path] = b
	return nil
}

func (f *fakeStorage) addPNG(path string, w, h int) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 40
		img.Pix[i+1] = 90
		img.Pix[i+2] = 140
		img.Pix[i+3] = 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	f.objects[path] = buf.Bytes()
}

func testProcessor(t *testing.T, storage *fakeStorage) *BatchProcessor {
	t.Helper()
	engine, err := watermark.NewEngine(&zlog.Logger)
	require.NoError(t, err)
	return NewBatchProcessor(engine, storage, 0, &zlog.Logger)
}

func gridTextSpec() domain.WatermarkSpec {
	return domain.WatermarkSpec{
		Kind:      "text",
		Text:      "© Example",
		FontSize:  24,
		FillColor: "#ffffff",
		Opacity:   60,
		Pattern:   "grid",
		SpacingX:  5,
		SpacingY:  5,
	}
}

func TestProcess_RendersEveryImage(t *testing.T) {
	storage := newFakeStorage()
	storage.addPNG("originals/a.png", 640, 480)
	storage.addPNG("originals/b.png", 650, 470)
	p := testProcessor(t, storage)

	task := &domain.RenderTask{
		ID:      "t1",
		BatchID: "b1",
		Images: []domain.TaskImage{
			{ImageID: "img-a", Path: "originals/a.png", Filename: "a.png"},
			{ImageID: "img-b", Path: "originals/b.png", Filename: "b.png"},
		},
		Spec:   gridTextSpec(),
		Format: domain.FormatJPEG,
	}

	result, err := p.Process(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchCompleted, result.Status)
	require.Len(t, result.Images, 2)

	widths := map[string]int{"img-a": 640, "img-b": 650}
	for _, ir := range result.Images {
		assert.True(t, ir.Rendered, ir.ImageID)
		assert.Empty(t, ir.Error)
		assert.True(t, strings.HasPrefix(ir.Path, domain.PathPrefixRendered), ir.Path)

		data, ok := storage.saved[ir.Path]
		require.True(t, ok)
		decoded, err := jpeg.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, widths[ir.ImageID], decoded.Bounds().Dx())
	}
}

func TestProcess_IsolatesPerImageFailure(t *testing.T) {
	storage := newFakeStorage()
	storage.addPNG("originals/good.png", 400, 300)
	storage.objects["originals/broken.png"] = []byte("not an image")
	p := testProcessor(t, storage)

	task := &domain.RenderTask{
		ID:      "t2",
		BatchID: "b2",
		Images: []domain.TaskImage{
			{ImageID: "img-bad", Path: "originals/broken.png"},
			{ImageID: "img-missing", Path: "originals/nope.png"},
			{ImageID: "img-good", Path: "originals/good.png"},
		},
		Spec:   gridTextSpec(),
		Format: domain.FormatJPEG,
	}

	result, err := p.Process(context.Background(), task)
	require.NoError(t, err)
	// The batch completes even though two images failed.
	assert.Equal(t, domain.BatchCompleted, result.Status)
	require.Len(t, result.Images, 3)

	assert.False(t, result.Images[0].Rendered)
	assert.NotEmpty(t, result.Images[0].Error)
	assert.False(t, result.Images[1].Rendered)
	assert.True(t, result.Images[2].Rendered)
}

func TestProcess_AllFailedMarksBatchFailed(t *testing.T) {
	storage := newFakeStorage()
	storage.objects["originals/broken.png"] = []byte("junk")
	p := testProcessor(t, storage)

	task := &domain.RenderTask{
		ID:      "t3",
		BatchID: "b3",
		Images:  []domain.TaskImage{{ImageID: "x", Path: "originals/broken.png"}},
		Spec:    gridTextSpec(),
		Format:  domain.FormatJPEG,
	}

	result, err := p.Process(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchFailed, result.Status)
}

func TestProcess_BadSpecFailsTask(t *testing.T) {
	storage := newFakeStorage()
	p := testProcessor(t, storage)

	task := &domain.RenderTask{
		ID:      "t4",
		BatchID: "b4",
		Images:  []domain.TaskImage{{ImageID: "x", Path: "originals/a.png"}},
		Spec:    domain.WatermarkSpec{Kind: "logo"}, // logo without a path
		Format:  domain.FormatJPEG,
	}

	result, err := p.Process(context.Background(), task)
	require.Error(t, err)
	assert.Equal(t, domain.BatchFailed, result.Status)
	assert.NotEmpty(t, result.Error)
}

func TestProcess_LogoWatermark(t *testing.T) {
	storage := newFakeStorage()
	storage.addPNG("originals/photo.png", 500, 400)

	logo := image.NewRGBA(image.Rect(0, 0, 24, 24))
	for i := 0; i < len(logo.Pix); i += 4 {
		logo.Pix[i] = 255
		logo.Pix[i+3] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, logo))
	storage.objects["logos/mark.png"] = buf.Bytes()

	p := testProcessor(t, storage)

	task := &domain.RenderTask{
		ID:      "t5",
		BatchID: "b5",
		Images:  []domain.TaskImage{{ImageID: "img", Path: "originals/photo.png"}},
		Spec: domain.WatermarkSpec{
			Kind:      "logo",
			LogoPath:  "logos/mark.png",
			LogoScale: 20,
			Opacity:   70,
			Pattern:   "grid",
		},
		Format: domain.FormatPNG,
	}

	result, err := p.Process(context.Background(), task)
	require.NoError(t, err)
	require.True(t, result.Images[0].Rendered)
	assert.True(t, strings.HasSuffix(result.Images[0].Path, ".png"))

	_, err = png.Decode(bytes.NewReader(storage.saved[result.Images[0].Path]))
	assert.NoError(t, err)
}

func TestPreview_DownscalesToPreviewWidth(t *testing.T) {
	storage := newFakeStorage()
	storage.addPNG("originals/big.png", 1600, 1200)
	p := testProcessor(t, storage)

	data, err := p.Preview(context.Background(), "originals/big.png", gridTextSpec(), 800)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 800, decoded.Bounds().Dx())
	assert.Equal(t, 600, decoded.Bounds().Dy())
}

func TestPreview_SmallSourceKeepsSize(t *testing.T) {
	storage := newFakeStorage()
	storage.addPNG("originals/small.png", 320, 240)
	p := testProcessor(t, storage)

	data, err := p.Preview(context.Background(), "originals/small.png", gridTextSpec(), 800)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 320, decoded.Bounds().Dx())
}

func TestPreviewSurface_AspectRatio(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1000, 400))
	dst := previewSurface(src, 500)
	assert.Equal(t, 500, dst.Bounds().Dx())
	assert.Equal(t, 200, dst.Bounds().Dy())
}

func TestToRGBA_ConvertsAndCopies(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	src.SetNRGBA(1, 1, color.NRGBA{10, 20, 30, 255})

	dst := toRGBA(src)
	assert.Equal(t, src.Bounds().Dx(), dst.Bounds().Dx())
	assert.Equal(t, uint8(10), dst.RGBAAt(1, 1).R)

	same := image.NewRGBA(image.Rect(0, 0, 2, 2))
	assert.Same(t, same, toRGBA(same))
}
