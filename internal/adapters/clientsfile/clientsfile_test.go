package clientsfile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/sentivision/internal/adapters/clientsfile"
	"github.com/okian/sentivision/internal/domain/model"
)

const sample = `
clients:
  - name: " Acme "
    industries: [logistics]
    competitors: [Globex]
    sources:
      - name: Acme blog
        type: HTML
        url: https://acme.test/blog
      - type: rss
        url: https://acme.test/rss
        tier: 2
`

func TestParse(t *testing.T) {
	convey.Convey("Given a valid clients document", t, func() {
		f, err := clientsfile.Parse([]byte(sample))

		convey.Convey("Then fields are normalized and defaults applied", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(f.Clients), convey.ShouldEqual, 1)
			c := f.Clients[0]
			convey.So(c.Name, convey.ShouldEqual, "Acme")
			convey.So(c.Sources[0].Type, convey.ShouldEqual, "html")
			convey.So(c.Sources[0].Tier, convey.ShouldEqual, 3)
			convey.So(c.Sources[1].Name, convey.ShouldEqual, "https://acme.test/rss")
			convey.So(c.Sources[1].Tier, convey.ShouldEqual, 2)
		})

		convey.Convey("Then generated search feeds are appended once", func() {
			srcs := f.Clients[0].FetchSources()
			convey.So(len(srcs), convey.ShouldEqual, 4)
			convey.So(srcs[2].URL, convey.ShouldEqual, "https://news.google.com/rss/search?q=Globex")
			convey.So(srcs[2].Type, convey.ShouldEqual, "search")
			convey.So(srcs[3].Name, convey.ShouldEqual, "Google News - logistics")
		})
	})

	convey.Convey("Given invalid documents", t, func() {
		cases := map[string]string{
			"missing key":    "other: []\n",
			"missing name":   "clients:\n  - sources: [{type: rss, url: x}]\n",
			"no sources":     "clients:\n  - name: Acme\n",
			"bad type":       "clients:\n  - name: Acme\n    sources: [{type: ftp, url: x}]\n",
			"missing url":    "clients:\n  - name: Acme\n    sources: [{type: rss}]\n",
			"bad tier":       "clients:\n  - name: Acme\n    sources: [{type: rss, url: x, tier: 9}]\n",
			"malformed yaml": "clients: [",
		}
		for name, doc := range cases {
			_, err := clientsfile.Parse([]byte(doc))
			convey.So(errors.Is(err, clientsfile.ErrInvalid), convey.ShouldBeTrue)
			convey.So(name, convey.ShouldNotBeEmpty)
		}
	})
}

func TestFromStore(t *testing.T) {
	convey.Convey("Given stored clients and sources", t, func() {
		acme, lonely := int64(1), int64(2)
		clients := []model.Client{
			{ID: acme, Name: "Acme", Industries: []string{"freight"}, Competitors: nil},
			{ID: lonely, Name: "Lonely"},
		}
		sources := []model.Source{
			{ID: 1, Name: "Wire", Type: model.SourceRSS, URL: "https://wire.test", MediaTier: 1, Global: true},
			{ID: 2, ClientID: &acme, Name: "Blog", Type: model.SourceHTML, URL: "https://acme.test", MediaTier: 3},
			{ID: 3, ClientID: &acme, Name: "Google News - freight", Type: model.SourceSearch, URL: clientsfile.SearchURL("freight"), MediaTier: 3},
		}

		f, skipped := clientsfile.FromStore(clients, sources)

		convey.Convey("Then only owned, non-generated sources are exported", func() {
			convey.So(len(f.Clients), convey.ShouldEqual, 1)
			convey.So(f.Clients[0].Sources, convey.ShouldResemble, []clientsfile.Source{{Name: "Blog", Type: "html", URL: "https://acme.test", Tier: 3}})
			convey.So(f.Clients[0].Competitors, convey.ShouldResemble, []string{})
		})

		convey.Convey("Then clients without sources are reported", func() {
			convey.So(skipped, convey.ShouldResemble, []string{"Lonely"})
		})
	})
}

func TestSave(t *testing.T) {
	convey.Convey("Given a clients document", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "config", "clients.yaml")
		f, err := clientsfile.Parse([]byte(sample))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When it is saved", func() {
			err := clientsfile.Save(context.Background(), path, f)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it round-trips through Load", func() {
				loaded, err := clientsfile.Load(path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(loaded, convey.ShouldResemble, f)
			})

			convey.Convey("Then no temp files are left behind", func() {
				entries, err := os.ReadDir(filepath.Dir(path))
				convey.So(err, convey.ShouldBeNil)
				names := make([]string, 0, len(entries))
				for _, e := range entries {
					names = append(names, e.Name())
				}
				convey.So(names, convey.ShouldResemble, []string{"clients.yaml", "clients.yaml.lock"})
			})
		})

		convey.Convey("When another process holds the lock", func() {
			convey.So(os.MkdirAll(filepath.Dir(path), 0o755), convey.ShouldBeNil)
			other := flock.New(path + ".lock")
			ok, err := other.TryLock()
			convey.So(err, convey.ShouldBeNil)
			convey.So(ok, convey.ShouldBeTrue)
			defer func() { _ = other.Unlock() }()

			ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
			defer cancel()
			err = clientsfile.Save(ctx, path, f)

			convey.Convey("Then saving gives up with ErrLocked", func() {
				convey.So(errors.Is(err, clientsfile.ErrLocked), convey.ShouldBeTrue)
				_, statErr := os.Stat(path)
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})
		})
	})
}

func TestLoadGlobalSources(t *testing.T) {
	convey.Convey("Given a settings file", t, func() {
		path := filepath.Join(t.TempDir(), "settings.yaml")

		convey.Convey("When it declares global sources", func() {
			doc := "database:\n  host: db\nglobal_sources:\n  - name: Wire\n    url: https://wire.test/rss\n  - name: Trade\n    url: https://trade.test/rss\n    tier: 2\n"
			convey.So(os.WriteFile(path, []byte(doc), 0o600), convey.ShouldBeNil)

			srcs, err := clientsfile.LoadGlobalSources(path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(srcs), convey.ShouldEqual, 2)
			convey.So(srcs[0].Tier, convey.ShouldEqual, 1)
			convey.So(srcs[1].Tier, convey.ShouldEqual, 2)
			convey.So(srcs[0].Type(), convey.ShouldEqual, model.SourceRSS)
		})

		convey.Convey("When a tier is out of range", func() {
			doc := "global_sources:\n  - name: Wire\n    url: https://wire.test/rss\n    tier: 5\n"
			convey.So(os.WriteFile(path, []byte(doc), 0o600), convey.ShouldBeNil)

			_, err := clientsfile.LoadGlobalSources(path)
			convey.So(errors.Is(err, clientsfile.ErrInvalid), convey.ShouldBeTrue)
		})

		convey.Convey("When there is no global list", func() {
			convey.So(os.WriteFile(path, []byte("database: {}\n"), 0o600), convey.ShouldBeNil)
			srcs, err := clientsfile.LoadGlobalSources(path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(srcs, convey.ShouldBeEmpty)
		})
	})
}
