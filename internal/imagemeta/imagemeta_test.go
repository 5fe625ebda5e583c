package imagemeta

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/lyfestyler-bot/internal/common"
)

// tiffWithDateTime собирает минимальный TIFF с тегом DateTime (0x0132).
func tiffWithDateTime(value string) []byte {
	var b bytes.Buffer
	le := binary.LittleEndian
	b.WriteString("II")
	_ = binary.Write(&b, le, uint16(42))
	_ = binary.Write(&b, le, uint32(8)) // IFD0

	str := append([]byte(value), 0)
	// Одна запись: DateTime, ASCII, длина с NUL, смещение строки
	_ = binary.Write(&b, le, uint16(1))
	_ = binary.Write(&b, le, uint16(0x0132))
	_ = binary.Write(&b, le, uint16(2))
	_ = binary.Write(&b, le, uint32(len(str)))
	_ = binary.Write(&b, le, uint32(8+2+12+4))
	// Следующего IFD нет
	_ = binary.Write(&b, le, uint32(0))
	b.Write(str)
	return b.Bytes()
}

type fakeFiles struct {
	url   string
	err   error
	calls int
}

func (f *fakeFiles) GetFile(_ context.Context, params *telego.GetFileParams) (*telego.File, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &telego.File{FileID: params.FileID, FilePath: "documents/file.jpg"}, nil
}

func (f *fakeFiles) FileDownloadURL(path string) string {
	return f.url + "/" + path
}

func TestCaptureDate(t *testing.T) {
	got, err := CaptureDate(bytes.NewReader(tiffWithDateTime("2026:10:10 08:15:00")))
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.October, got.Month())
	assert.Equal(t, 10, got.Day())
	assert.Equal(t, 8, got.Hour())
}

func TestCaptureDate_Garbage(t *testing.T) {
	_, err := CaptureDate(bytes.NewReader([]byte("definitely not an image")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNoCaptureDate))
}

func TestFromMessage(t *testing.T) {
	_, ok := FromMessage(nil)
	assert.False(t, ok)

	_, ok = FromMessage(&telego.Message{Text: "!gym"})
	assert.False(t, ok)

	_, ok = FromMessage(&telego.Message{Document: &telego.Document{FileID: "d", MimeType: "application/pdf"}})
	assert.False(t, ok)

	img, ok := FromMessage(&telego.Message{Photo: []telego.PhotoSize{
		{FileID: "small", FileSize: 100},
		{FileID: "large", FileSize: 5000},
	}})
	require.True(t, ok)
	assert.Equal(t, "large", img.FileID)
	assert.True(t, img.Compressed)

	img, ok = FromMessage(&telego.Message{Document: &telego.Document{FileID: "doc", MimeType: "image/jpeg", FileSize: 42}})
	require.True(t, ok)
	assert.Equal(t, "doc", img.FileID)
	assert.Equal(t, int64(42), img.FileSize)
	assert.False(t, img.Compressed)
}

func TestInspector_CaptureDate(t *testing.T) {
	payload := tiffWithDateTime("2026:10:01 07:00:00")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	files := &fakeFiles{url: srv.URL}
	i := NewInspector(files, 1<<20, time.Second)

	got, ok := i.CaptureDate(context.Background(), Image{FileID: "doc", MimeType: "image/tiff"})
	require.True(t, ok)
	assert.Equal(t, 1, got.Day())
	assert.Equal(t, 1, files.calls)
}

func TestInspector_NoSignal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing/documents/file.jpg" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("jpeg without exif"))
	}))
	defer srv.Close()

	t.Run("сжатое фото не скачивается", func(t *testing.T) {
		files := &fakeFiles{url: srv.URL}
		_, ok := NewInspector(files, 0, time.Second).CaptureDate(context.Background(), Image{FileID: "p", Compressed: true})
		assert.False(t, ok)
		assert.Zero(t, files.calls)
	})

	t.Run("слишком большой файл", func(t *testing.T) {
		files := &fakeFiles{url: srv.URL}
		_, ok := NewInspector(files, 10, time.Second).CaptureDate(context.Background(), Image{FileID: "d", FileSize: 11})
		assert.False(t, ok)
		assert.Zero(t, files.calls)
	})

	t.Run("ответ больше лимита", func(t *testing.T) {
		files := &fakeFiles{url: srv.URL}
		_, ok := NewInspector(files, 5, time.Second).CaptureDate(context.Background(), Image{FileID: "d"})
		assert.False(t, ok)
	})

	t.Run("нет EXIF", func(t *testing.T) {
		files := &fakeFiles{url: srv.URL}
		_, ok := NewInspector(files, 0, time.Second).CaptureDate(context.Background(), Image{FileID: "d"})
		assert.False(t, ok)
	})

	t.Run("404", func(t *testing.T) {
		files := &fakeFiles{url: srv.URL + "/missing"}
		_, ok := NewInspector(files, 0, time.Second).CaptureDate(context.Background(), Image{FileID: "d"})
		assert.False(t, ok)
	})

	t.Run("ошибка getFile", func(t *testing.T) {
		files := &fakeFiles{url: srv.URL, err: errors.New("telegram down")}
		_, ok := NewInspector(files, 0, time.Second).CaptureDate(context.Background(), Image{FileID: "d"})
		assert.False(t, ok)
	})
}
