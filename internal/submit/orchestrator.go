// Пакет submit — клиентская отправка поста: выбор изображения,
// загрузка файла в хранилище, затем создание записи поста.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// State — состояние отправки.
type State int

const (
	// Idle — ничего не отправляется.
	Idle State = iota
	// AwaitingAssetWrite — файл загружается в хранилище.
	AwaitingAssetWrite
	// AwaitingRecordCreate — файл загружен, создаётся запись поста.
	AwaitingRecordCreate
	// Success — пост создан.
	Success
	// Failed — отправка завершилась ошибкой.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingAssetWrite:
		return "awaiting_asset_write"
	case AwaitingRecordCreate:
		return "awaiting_record_create"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Сообщения для пользователя.
const (
	MsgSelectImage  = "Please select an image"
	MsgUploadFailed = "Failed to upload image"
	MsgCreateFailed = "Failed to create post"
	MsgGeneric      = "Something went wrong"
)

// DestinationAfterSuccess — куда ведёт успешная отправка.
const DestinationAfterSuccess = "/profile"

var (
	// ErrNoAsset — изображение не выбрано.
	ErrNoAsset = errors.New("изображение не выбрано")
	// ErrInFlight — предыдущая отправка ещё не завершена.
	ErrInFlight = errors.New("отправка уже выполняется")
	// ErrUpload — файл не загружен.
	ErrUpload = errors.New("ошибка загрузки изображения")
	// ErrCreate — запись поста не создана.
	ErrCreate = errors.New("ошибка создания поста")
)

// Client — сервер snapfeed с точки зрения отправки.
type Client interface {
	// UploadAsset загружает файл и возвращает ссылку на него.
	UploadAsset(ctx context.Context, name string, data []byte) (string, error)
	// CreatePost создаёт пост и возвращает его ID.
	CreatePost(ctx context.Context, imageURL, caption, idempotencyKey string) (string, error)
}

// Navigator выполняет переход после успешной отправки.
type Navigator interface {
	Navigate(destination string)
}

// NavigatorFunc — адаптер функции к Navigator.
type NavigatorFunc func(destination string)

// Navigate вызывает f(destination).
func (f NavigatorFunc) Navigate(destination string) { f(destination) }

// Submission — данные одной попытки отправки.
type Submission struct {
	Asset   *SelectedAsset
	Caption string
}

// Orchestrator проводит отправку через две операции сервера.
// Одновременно выполняется не более одной отправки.
type Orchestrator struct {
	client    Client
	navigator Navigator
	newKey    func() string
	logger    *slog.Logger

	mu       sync.Mutex
	state    State
	message  string
	selected *SelectedAsset
	postID   string
}

// New создаёт Orchestrator. navigator может быть nil.
func New(client Client, navigator Navigator, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		client:    client,
		navigator: navigator,
		newKey:    uuid.NewString,
		logger:    logger.With(slog.String("component", "submit")),
	}
}

// Select запоминает выбранное изображение и сбрасывает сообщение об ошибке.
// Во время отправки выбор не меняется.
func (o *Orchestrator) Select(name string, data []byte) *SelectedAsset {
	asset := NewSelectedAsset(name, data)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busyLocked() {
		return o.selected
	}
	o.selected = asset
	o.message = ""
	return asset
}

// Selected возвращает выбранное изображение или nil.
func (o *Orchestrator) Selected() *SelectedAsset {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selected
}

// State возвращает текущее состояние.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Message возвращает сообщение для пользователя (пусто, если ошибки нет).
func (o *Orchestrator) Message() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.message
}

// Busy сообщает, выполняется ли отправка.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busyLocked()
}

// PostID возвращает ID поста, созданного последней успешной отправкой.
func (o *Orchestrator) PostID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.postID
}

func (o *Orchestrator) busyLocked() bool {
	return o.state == AwaitingAssetWrite || o.state == AwaitingRecordCreate
}

// SubmitSelected отправляет выбранное через Select изображение.
func (o *Orchestrator) SubmitSelected(ctx context.Context, caption string) (string, error) {
	return o.Submit(ctx, Submission{Asset: o.Selected(), Caption: caption})
}

// Submit выполняет попытку отправки: загрузка файла, затем создание поста
// с новым ключом идемпотентности. Возвращает ID поста.
func (o *Orchestrator) Submit(ctx context.Context, s Submission) (string, error) {
	o.mu.Lock()
	if o.busyLocked() {
		o.mu.Unlock()
		return "", ErrInFlight
	}
	if s.Asset == nil || len(s.Asset.Data) == 0 {
		o.message = MsgSelectImage
		o.mu.Unlock()
		return "", ErrNoAsset
	}
	o.state = AwaitingAssetWrite
	o.message = ""
	o.postID = ""
	o.mu.Unlock()

	key := o.newKey()
	log := o.logger.With(slog.String("idempotency_key", key))

	imageURL, err := o.client.UploadAsset(ctx, s.Asset.Name, s.Asset.Data)
	if err != nil {
		log.Warn("Ошибка загрузки изображения", slog.String("error", err.Error()))
		o.fail(failureMessage(err, MsgUploadFailed))
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}

	o.setState(AwaitingRecordCreate)
	log.Debug("Изображение загружено", slog.String("image_url", imageURL))

	postID, err := o.client.CreatePost(ctx, imageURL, s.Caption, key)
	if err != nil {
		log.Warn("Ошибка создания поста",
			slog.String("image_url", imageURL),
			slog.String("error", err.Error()),
		)
		o.fail(failureMessage(err, MsgCreateFailed))
		return "", fmt.Errorf("%w: %w", ErrCreate, err)
	}

	o.mu.Lock()
	o.state = Success
	o.postID = postID
	o.selected = nil
	o.mu.Unlock()

	log.Info("Пост отправлен", slog.String("post_id", postID))
	if o.navigator != nil {
		o.navigator.Navigate(DestinationAfterSuccess)
	}
	return postID, nil
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) fail(message string) {
	o.mu.Lock()
	o.state = Failed
	o.message = message
	o.mu.Unlock()
}

// failureMessage: отказ сервера даёт сообщение шага, сетевая ошибка
// показывается как есть.
func failureMessage(err error, stepMessage string) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return stepMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgGeneric
}
