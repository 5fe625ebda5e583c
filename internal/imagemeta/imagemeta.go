// Package imagemeta достаёт дату съёмки из EXIF приложенного изображения.
//
// Любая ошибка (нет EXIF, битый файл, сеть) означает «сигнала нет»:
// проверка на старое фото не должна мешать чек-ину.
package imagemeta

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mymmrac/telego"
	"github.com/rwcarlsen/goexif/exif"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lyfestyler-bot/internal/common"
)

// Image — изображение, приложенное к сообщению.
type Image struct {
	FileID   string
	FileSize int64
	MimeType string
	// Compressed — фото, пережатое Telegram. EXIF в нём уже нет.
	Compressed bool
}

// FromMessage находит изображение в сообщении: фото (берём самый
// крупный размер) или документ с MIME image/*.
func FromMessage(msg *telego.Message) (Image, bool) {
	if msg == nil {
		return Image{}, false
	}
	if doc := msg.Document; doc != nil && strings.HasPrefix(doc.MimeType, "image/") {
		return Image{
			FileID:   doc.FileID,
			FileSize: doc.FileSize,
			MimeType: doc.MimeType,
		}, true
	}
	if n := len(msg.Photo); n > 0 {
		p := msg.Photo[n-1]
		return Image{
			FileID:     p.FileID,
			FileSize:   int64(p.FileSize),
			MimeType:   "image/jpeg",
			Compressed: true,
		}, true
	}
	return Image{}, false
}

// CaptureDate читает DateTimeOriginal/DateTime из EXIF.
// Время возвращается «как записано» камерой, без учёта пояса.
func CaptureDate(r io.Reader) (time.Time, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", common.ErrNoCaptureDate, err)
	}
	t, err := x.DateTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", common.ErrNoCaptureDate, err)
	}
	return t, nil
}

// FileAPI — часть Bot API для скачивания файлов (*telego.Bot).
type FileAPI interface {
	GetFile(ctx context.Context, params *telego.GetFileParams) (*telego.File, error)
	FileDownloadURL(filepath string) string
}

// Inspector скачивает изображения и читает дату съёмки.
type Inspector struct {
	files    FileAPI
	client   *http.Client
	maxBytes int64
	timeout  time.Duration
	retries  uint64
}

// NewInspector создаёт инспектор. maxBytes ограничивает размер скачиваемого файла.
func NewInspector(files FileAPI, maxBytes int64, timeout time.Duration) *Inspector {
	return &Inspector{
		files:    files,
		client:   &http.Client{},
		maxBytes: maxBytes,
		timeout:  timeout,
		retries:  2,
	}
}

// CaptureDate возвращает дату съёмки. ok == false — сигнала нет.
func (i *Inspector) CaptureDate(ctx context.Context, img Image) (time.Time, bool) {
	logger := log.WithFields(log.Fields{
		"component": "imagemeta",
		"file_id":   img.FileID,
	})

	if img.Compressed {
		logger.Debug("Сжатое фото, EXIF недоступен")
		return time.Time{}, false
	}

	data, err := i.download(ctx, img)
	if err != nil {
		logger.WithError(err).Debug("Не удалось скачать изображение")
		return time.Time{}, false
	}

	t, err := CaptureDate(bytes.NewReader(data))
	if err != nil {
		logger.WithError(err).Debug("Дата съёмки не найдена")
		return time.Time{}, false
	}
	return t, true
}

func (i *Inspector) download(ctx context.Context, img Image) ([]byte, error) {
	if i.maxBytes > 0 && img.FileSize > i.maxBytes {
		return nil, common.ErrImageTooLarge
	}
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	file, err := i.files.GetFile(ctx, &telego.GetFileParams{FileID: img.FileID})
	if err != nil {
		return nil, fmt.Errorf("getFile: %w", err)
	}
	url := i.files.FileDownloadURL(file.FilePath)

	var data []byte
	op := func() error {
		var err error
		data, err = i.fetch(ctx, url)
		if errors.Is(err, common.ErrImageTooLarge) {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), i.retries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return data, nil
}

func (i *Inspector) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("статус %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	r := io.Reader(resp.Body)
	if i.maxBytes > 0 {
		r = io.LimitReader(resp.Body, i.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if i.maxBytes > 0 && int64(len(data)) > i.maxBytes {
		return nil, common.ErrImageTooLarge
	}
	return data, nil
}
