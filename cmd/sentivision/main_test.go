package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/smartystreets/goconvey/convey"

	service "github.com/okian/sentivision/internal/app"
	"github.com/okian/sentivision/internal/config"
	"github.com/okian/sentivision/internal/domain/model"
	"github.com/okian/sentivision/internal/domain/scoring"
	"github.com/okian/sentivision/pkg/metrics"
)

// writeConfig writes a config file pointing at a fresh sqlite database in dir.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	body := fmt.Sprintf(`log_level: warn
log_format: json
database:
  driver: sqlite
  dsn: file:%s
clients_file: %s
settings_file: %s
rate_limit:
  rps: 0
migrate_on_start: true
`, filepath.Join(dir, "sentivision.db"), filepath.Join(dir, "clients.yaml"), filepath.Join(dir, "settings.yaml"))
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(args ...string) (string, error) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		cmd := newRootCommand()

		convey.Convey("Then it carries every subcommand", func() {
			names := make([]string, 0)
			for _, c := range cmd.Commands() {
				names = append(names, c.Name())
			}
			convey.So(names, convey.ShouldContain, "serve")
			convey.So(names, convey.ShouldContain, "migrate")
			convey.So(names, convey.ShouldContain, "export-clients")
			convey.So(names, convey.ShouldContain, "clients")
		})

		convey.Convey("Then the config flag is persistent", func() {
			convey.So(cmd.PersistentFlags().Lookup("config"), convey.ShouldNotBeNil)
		})

		convey.Convey("When the config file is missing", func() {
			_, err := execute("--config", filepath.Join(t.TempDir(), "missing.yaml"), "migrate")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestCommands(t *testing.T) {
	convey.Convey("Given a configured sqlite database", t, func() {
		dir := t.TempDir()
		cfgPath := writeConfig(t, dir)

		out, err := execute("--config", cfgPath, "migrate")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldContainSubstring, "Schema is up to date.")

		convey.Convey("When no clients exist", func() {
			out, err := execute("--config", cfgPath, "clients")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "No clients.")
		})

		convey.Convey("When a client with a source exists", func() {
			cc := newCommandContext(&cfgPath)
			cc.logOutput = io.Discard
			err := cc.withService(context.Background(), func(_ *config.Config, svc *service.Service) error {
				c, err := svc.CreateClient(context.Background(), model.Client{Name: "Acme", Industries: []string{"robotics"}})
				if err != nil {
					return err
				}
				_, err = svc.CreateSource(context.Background(), model.Source{
					ClientID:  &c.ID,
					Name:      "Acme newsroom",
					Type:      model.SourceRSS,
					URL:       "https://acme.example/rss",
					MediaTier: model.TierVendor,
					Enabled:   true,
				})
				return err
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then clients prints a table without scores", func() {
				out, err := execute("--config", cfgPath, "clients", "--tier", "1", "--tier", "4")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Acme")
				convey.So(out, convey.ShouldContainSubstring, "No data")
				convey.So(out, convey.ShouldContainSubstring, "0 articles (0 scored), 0 direct mentions (0 scored)")
				convey.So(out, convey.ShouldNotContainSubstring, ansiGray)
			})

			convey.Convey("Then export-clients rewrites the clients file", func() {
				out, err := execute("--config", cfgPath, "export-clients")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Wrote 1 clients")

				data, err := os.ReadFile(filepath.Join(dir, "clients.yaml"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldContainSubstring, "Acme")
				convey.So(string(data), convey.ShouldContainSubstring, "https://acme.example/rss")
			})
		})
	})
}

func TestHandler(t *testing.T) {
	convey.Convey("Given the assembled HTTP handler", t, func() {
		dir := t.TempDir()
		cfgPath := writeConfig(t, dir)
		cc := newCommandContext(&cfgPath)
		cc.logOutput = io.Discard

		err := cc.withService(context.Background(), func(cfg *config.Config, svc *service.Service) error {
			ctx := context.Background()
			if err := svc.Start(ctx); err != nil {
				return err
			}
			cfg.Metrics.Labels = map[string]string{"instance": "ci"}
			defer metrics.Configure()
			h, err := newHandler(ctx, cfg, svc)
			if err != nil {
				return err
			}
			srv := httptest.NewServer(h)
			defer srv.Close()

			get := func(path string) (*http.Response, string) {
				resp, err := http.Get(srv.URL + path)
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				body, _ := io.ReadAll(resp.Body)
				return resp, string(body)
			}

			resp, _ := get("/healthz")
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(resp.Header.Get("X-Request-ID"), convey.ShouldNotBeEmpty)

			resp, body := get("/")
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(body, convey.ShouldContainSubstring, "No clients yet")

			resp, body = get("/api/dashboard")
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(body, convey.ShouldContainSubstring, `"total_articles":0`)

			resp, _ = get("/api-docs")
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			resp, body = get("/metrics")
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(body, convey.ShouldContainSubstring, "sentivision_dashboard_http_requests_total")
			convey.So(body, convey.ShouldContainSubstring, `instance="ci"`)
			return nil
		})
		convey.So(err, convey.ShouldBeNil)
	})
}

func TestRenderDashboard(t *testing.T) {
	convey.Convey("Given a dashboard", t, func() {
		s := 0.42
		d := service.Dashboard{
			Tiles: []service.Tile{
				{
					Client:   model.Client{ID: 7, Name: "Globex"},
					Direct:   service.ScopeView{Result: scoring.Result{WeightedMean: &s, Total: 3, Scored: 2}, Gauge: scoring.ToGauge(&s)},
					Articles: 5,
				},
				{
					Client: model.Client{ID: 8, Name: "Initech"},
					Direct: service.ScopeView{Gauge: scoring.ToGauge(nil)},
				},
			},
			TotalArticles:     5,
			TotalScored:       4,
			TotalDirect:       3,
			TotalDirectScored: 2,
		}

		convey.Convey("Plain output carries labels and scores", func() {
			out := renderDashboard(d, false)
			convey.So(out, convey.ShouldContainSubstring, "Globex")
			convey.So(out, convey.ShouldContainSubstring, "Positive")
			convey.So(out, convey.ShouldContainSubstring, "0.42")
			convey.So(out, convey.ShouldContainSubstring, "No data")
			convey.So(out, convey.ShouldContainSubstring, "5 articles (4 scored), 3 direct mentions (2 scored)")
			convey.So(out, convey.ShouldNotContainSubstring, ansiReset)
		})

		convey.Convey("Long client names are trimmed to the column width", func() {
			long := strings.Repeat("Umbrella", 5)
			d.Tiles[1].Client.Name = long
			out := renderDashboard(d, false)
			convey.So(out, convey.ShouldContainSubstring, long[:clientNameWidth])
			convey.So(out, convey.ShouldNotContainSubstring, long)
		})

		convey.Convey("Colored output wraps labels in their gauge color", func() {
			out := renderDashboard(d, true)
			convey.So(out, convey.ShouldContainSubstring, ansiGreen+"Positive"+ansiReset)
			convey.So(out, convey.ShouldContainSubstring, ansiGray+"No data"+ansiReset)
		})
	})
}

func TestRenderTable(t *testing.T) {
	convey.Convey("Given table rows", t, func() {
		convey.So(renderTable(nil, nil), convey.ShouldBeEmpty)

		cols := []column{{title: "Name", align: text.AlignLeft}, {title: "Count", align: text.AlignRight}}
		out := renderTable(cols, []table.Row{{"alpha", 1}, {"beta", 12345}, {"gamma"}})
		lines := strings.Split(out, "\n")
		convey.So(len(lines), convey.ShouldEqual, 7)
		convey.So(out, convey.ShouldContainSubstring, "╭")
		convey.So(out, convey.ShouldContainSubstring, "12345")

		convey.Convey("Numeric columns are right aligned", func() {
			convey.So(out, convey.ShouldContainSubstring, "     1 │")
		})
	})

	convey.Convey("Given a non-terminal writer", t, func() {
		convey.So(shouldColorize(&bytes.Buffer{}), convey.ShouldBeFalse)
	})
}
