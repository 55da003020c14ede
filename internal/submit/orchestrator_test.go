package submit

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeClient — Client с управляемыми ошибками и блокировкой загрузки.
type fakeClient struct {
	mu        sync.Mutex
	uploads   int
	creates   int
	keys      []string
	uploadErr error
	createErr error
	// block — если не nil, UploadAsset ждёт закрытия канала
	block   chan struct{}
	started chan struct{}
}

func (f *fakeClient) UploadAsset(_ context.Context, _ string, _ []byte) (string, error) {
	f.mu.Lock()
	f.uploads++
	block, started := f.block, f.started
	f.mu.Unlock()
	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "/uploads/1.png", nil
}

func (f *fakeClient) CreatePost(_ context.Context, _, _, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.keys = append(f.keys, key)
	if f.createErr != nil {
		return "", f.createErr
	}
	return "post-1", nil
}

type recordingNavigator struct{ destinations []string }

func (n *recordingNavigator) Navigate(dest string) { n.destinations = append(n.destinations, dest) }

func TestSubmit_Success(t *testing.T) {
	client := &fakeClient{}
	nav := &recordingNavigator{}
	o := New(client, nav, testLogger())

	o.Select("cat.png", pngHeader)
	id, err := o.SubmitSelected(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Submit() ошибка: %v", err)
	}
	if id != "post-1" || o.PostID() != "post-1" {
		t.Errorf("ID = %q, ожидался post-1", id)
	}
	if o.State() != Success || o.Message() != "" || o.Busy() {
		t.Errorf("состояние = %s, сообщение = %q", o.State(), o.Message())
	}
	if len(nav.destinations) != 1 || nav.destinations[0] != "/profile" {
		t.Errorf("переходы = %v, ожидался [/profile]", nav.destinations)
	}
	if o.Selected() != nil {
		t.Error("после успеха выбор должен сбрасываться")
	}
}

func TestSubmit_NoAsset(t *testing.T) {
	client := &fakeClient{}
	o := New(client, nil, testLogger())

	_, err := o.Submit(context.Background(), Submission{Caption: "bez obrázka"})
	if !errors.Is(err, ErrNoAsset) {
		t.Fatalf("ошибка = %v, ожидалась ErrNoAsset", err)
	}
	if o.State() != Idle || o.Message() != MsgSelectImage {
		t.Errorf("состояние = %s, сообщение = %q", o.State(), o.Message())
	}
	if client.uploads != 0 || client.creates != 0 {
		t.Errorf("сетевых вызовов быть не должно: upload=%d create=%d", client.uploads, client.creates)
	}
}

func TestSubmit_Failures(t *testing.T) {
	tests := []struct {
		name      string
		client    *fakeClient
		wantErr   error
		wantMsg   string
		wantCalls [2]int
	}{
		{
			name:      "сервер отклонил загрузку",
			client:    &fakeClient{uploadErr: &StatusError{Op: "upload", Status: 400, Message: "No file uploaded"}},
			wantErr:   ErrUpload,
			wantMsg:   MsgUploadFailed,
			wantCalls: [2]int{1, 0},
		},
		{
			name:      "сервер отклонил создание",
			client:    &fakeClient{createErr: &StatusError{Op: "create post", Status: 401, Message: "Unauthorized"}},
			wantErr:   ErrCreate,
			wantMsg:   MsgCreateFailed,
			wantCalls: [2]int{1, 1},
		},
		{
			name:      "сетевая ошибка",
			client:    &fakeClient{uploadErr: errors.New("dial tcp: connection refused")},
			wantErr:   ErrUpload,
			wantMsg:   "dial tcp: connection refused",
			wantCalls: [2]int{1, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := &recordingNavigator{}
			o := New(tt.client, nav, testLogger())

			_, err := o.Submit(context.Background(), Submission{Asset: NewSelectedAsset("a.png", pngHeader)})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ошибка = %v, ожидалась %v", err, tt.wantErr)
			}
			if o.State() != Failed || o.Message() != tt.wantMsg {
				t.Errorf("состояние = %s, сообщение = %q; ожидалось failed, %q", o.State(), o.Message(), tt.wantMsg)
			}
			if got := [2]int{tt.client.uploads, tt.client.creates}; got != tt.wantCalls {
				t.Errorf("вызовы = %v, ожидались %v", got, tt.wantCalls)
			}
			if len(nav.destinations) != 0 {
				t.Errorf("переходов быть не должно: %v", nav.destinations)
			}
		})
	}
}

func TestSubmit_InFlightGuard(t *testing.T) {
	client := &fakeClient{block: make(chan struct{}), started: make(chan struct{})}
	o := New(client, nil, testLogger())
	asset := NewSelectedAsset("a.png", pngHeader)

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(context.Background(), Submission{Asset: asset})
		done <- err
	}()
	<-client.started

	if !o.Busy() || o.State() != AwaitingAssetWrite {
		t.Errorf("во время загрузки: состояние = %s", o.State())
	}
	if _, err := o.Submit(context.Background(), Submission{Asset: asset}); !errors.Is(err, ErrInFlight) {
		t.Errorf("повторная отправка: ошибка = %v, ожидалась ErrInFlight", err)
	}

	close(client.block)
	if err := <-done; err != nil {
		t.Fatalf("первая отправка: %v", err)
	}
	if client.uploads != 1 || client.creates != 1 {
		t.Errorf("вызовы: upload=%d create=%d, ожидалось по одному", client.uploads, client.creates)
	}
}

func TestSubmit_FreshKeyPerAttempt(t *testing.T) {
	client := &fakeClient{createErr: &StatusError{Status: 500}}
	o := New(client, nil, testLogger())
	asset := NewSelectedAsset("a.png", pngHeader)

	_, _ = o.Submit(context.Background(), Submission{Asset: asset})
	client.createErr = nil
	if _, err := o.Submit(context.Background(), Submission{Asset: asset}); err != nil {
		t.Fatalf("повтор после ошибки: %v", err)
	}

	if len(client.keys) != 2 || client.keys[0] == client.keys[1] || client.keys[0] == "" {
		t.Errorf("ключи = %v, ожидались два разных UUID", client.keys)
	}
}

func TestFailureMessage(t *testing.T) {
	if got := failureMessage(errors.New(""), MsgUploadFailed); got != MsgGeneric {
		t.Errorf("пустая ошибка: %q, ожидалось %q", got, MsgGeneric)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		preview bool
	}{
		{"png", pngHeader, true},
		{"текст", []byte("just text"), false},
		{"пусто", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, ok := NewSelectedAsset("f", tt.data).Preview()
			if ok != tt.preview {
				t.Fatalf("Preview() ok = %v, ожидалось %v", ok, tt.preview)
			}
			if ok && url[:len("data:image/png;base64,")] != "data:image/png;base64," {
				t.Errorf("data URL = %q", url)
			}
		})
	}
}

func TestSelect_IgnoredWhileBusy(t *testing.T) {
	client := &fakeClient{block: make(chan struct{}), started: make(chan struct{})}
	o := New(client, nil, testLogger())
	first := o.Select("a.png", pngHeader)

	done := make(chan struct{})
	go func() {
		_, _ = o.SubmitSelected(context.Background(), "")
		close(done)
	}()
	<-client.started

	if got := o.Select("b.png", pngHeader); got != first {
		t.Error("во время отправки выбор не должен меняться")
	}
	close(client.block)
	<-done
}
