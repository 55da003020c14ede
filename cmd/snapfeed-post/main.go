// snapfeed-post — CLI публикации изображения в snapfeed.
// Загружает файл через /api/upload и создаёт пост через /api/posts
// (те же два шага, что выполняет форма «Create New Post»).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bigkaa/snapfeed/internal/config"
	"github.com/bigkaa/snapfeed/internal/submit"
)

// envPrefix — префикс переменных окружения CLI (SNAPFEED_URL, SNAPFEED_TOKEN, ...).
const envPrefix = "SNAPFEED"

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	gray  = color.New(color.FgHiBlack).SprintFunc()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(viper.New()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCommand создаёт корневую команду. Значения флагов могут
// задаваться переменными окружения SNAPFEED_*.
func newRootCommand(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "snapfeed-post <image>",
		Short: "Опубликовать изображение в snapfeed",
		Long: `Публикует изображение с подписью в snapfeed.

Примеры:
  snapfeed-post --url https://snapfeed.example.com --token "$TOKEN" cat.jpg
  SNAPFEED_URL=http://localhost:8080 SNAPFEED_SESSION=... snapfeed-post -c "Tatry" hory.png`,
		Version:       config.Version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runPost(cmd.Context(), v, args[0], cmd.OutOrStdout())
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), red("✗ "+err.Error()))
			}
			return err
		},
	}

	flags := rootCmd.Flags()
	flags.StringP("url", "u", "http://localhost:8080", "адрес snapfeed")
	flags.StringP("caption", "c", "", "подпись к изображению")
	flags.StringP("token", "t", "", "bearer-токен Keycloak")
	flags.String("session", "", "значение cookie snapfeed_session (вместо токена)")
	flags.String("ca-cert", "", "CA-сертификат для TLS")
	flags.Duration("timeout", 30*time.Second, "таймаут одного запроса")
	flags.BoolP("verbose", "v", false, "подробный вывод")

	_ = v.BindPFlags(flags)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return rootCmd
}

// stdoutNavigator выводит пункт назначения после успешной отправки.
type stdoutNavigator struct {
	out     io.Writer
	baseURL string
}

func (n stdoutNavigator) Navigate(destination string) {
	fmt.Fprintln(n.out, gray("→ "+strings.TrimRight(n.baseURL, "/")+destination))
}

func runPost(ctx context.Context, v *viper.Viper, path string, out io.Writer) error {
	level := slog.LevelWarn
	if v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	token, session := v.GetString("token"), v.GetString("session")
	if token == "" && session == "" {
		return errors.New("нужен --token или --session (SNAPFEED_TOKEN / SNAPFEED_SESSION)")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("чтение %s: %w", path, err)
	}

	cfg := submit.HTTPConfig{
		BaseURL:       v.GetString("url"),
		SessionCookie: session,
		CACertPath:    v.GetString("ca-cert"),
		Timeout:       v.GetDuration("timeout"),
	}
	if token != "" {
		cfg.TokenProvider = submit.StaticToken(token)
	}
	client, err := submit.NewHTTPClient(cfg, logger)
	if err != nil {
		return err
	}

	o := submit.New(client, stdoutNavigator{out: out, baseURL: cfg.BaseURL}, logger)
	asset := o.Select(filepath.Base(path), data)
	if !asset.IsImage() {
		fmt.Fprintln(out, gray("! содержимое не распознано как изображение ("+asset.ContentType+")"))
	}

	postID, err := o.SubmitSelected(ctx, v.GetString("caption"))
	if err != nil {
		if msg := o.Message(); msg != "" {
			return fmt.Errorf("%s: %w", msg, err)
		}
		return err
	}

	fmt.Fprintln(out, green("✓ Пост создан: "+postID))
	return nil
}
