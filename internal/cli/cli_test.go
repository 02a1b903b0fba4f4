package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/lineup/internal/adapters/catalogfile"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/search"
	. "github.com/smartystreets/goconvey/convey"
)

const showCSV = `Dance,Members
Season Dances,
Opener,"Ana, Ben"
Duet,"Ben, Cleo"
Solo,Dan
Side Projects,
Finale,"Ana, Cleo, Dan"
`

func writeCatalog(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func run(stdin string, args ...string) (string, error) {
	root := New().RootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestActsCommand(t *testing.T) {
	Convey("Given a CSV catalog with section headers", t, func() {
		path := writeCatalog(t, "show.csv", showCSV)

		Convey("When listing the acts", func() {
			out, err := run("", "acts", path)

			Convey("Then every act is shown and headers are skipped", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Available acts (4)")
				So(out, ShouldContainSubstring, "Opener")
				So(out, ShouldContainSubstring, "Ana, Cleo, Dan")
				So(out, ShouldNotContainSubstring, "Season Dances")
			})
		})

		Convey("When the file does not exist", func() {
			_, err := run("", "acts", filepath.Join(t.TempDir(), "missing.csv"))

			So(err, ShouldNotBeNil)
		})

		Convey("When the extension is unknown", func() {
			_, err := run("", "acts", writeCatalog(t, "show.txt", showCSV))

			So(errors.Is(err, catalogfile.ErrUnsupportedFormat), ShouldBeTrue)
		})
	})
}

func TestExhaustiveCommand(t *testing.T) {
	Convey("Given a four act catalog", t, func() {
		path := writeCatalog(t, "show.csv", showCSV)

		Convey("When searching with a pinned opener", func() {
			out, err := run("", "exhaustive", path, "--start", "Opener")

			Convey("Then a collision-free order is found", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Minimum collisions")
				So(out, ShouldContainSubstring, "Examined 6 orders")
				So(out, ShouldContainSubstring, "Opener → Solo → Duet → Finale")
			})
		})

		Convey("When the start pin is unknown", func() {
			_, err := run("", "exhaustive", path, "--start", "Encore")

			Convey("Then the constraint is rejected", func() {
				So(errors.Is(err, model.ErrInvalidConstraint), ShouldBeTrue)
			})
		})

		Convey("When the plan exceeds the threshold and the user declines", func() {
			out, err := run("no\n", "exhaustive", path, "--warn-threshold", "2")

			Convey("Then the search is aborted after the prompt", func() {
				So(errors.Is(err, ErrAborted), ShouldBeTrue)
				So(out, ShouldContainSubstring, "Do you want to continue? (yes/no)")
				So(out, ShouldContainSubstring, "number of permutations is 24")
			})
		})

		Convey("When the plan exceeds the threshold and the user agrees", func() {
			out, err := run("yes\n", "exhaustive", path, "--warn-threshold", "2", "--max-ties", "1")

			Convey("Then the search runs", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Examined 24 orders, 1 optimal")
			})
		})

		Convey("When --yes skips the prompt", func() {
			out, err := run("", "exhaustive", path, "--warn-threshold", "2", "--yes")

			So(err, ShouldBeNil)
			So(out, ShouldNotContainSubstring, "continue?")
		})

		Convey("When running interactively", func() {
			out, err := run("Opener\nFinale\n", "exhaustive", path, "-i")

			Convey("Then the acts are listed and the answers become pins", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Available acts (4)")
				So(out, ShouldContainSubstring, "Examined 2 orders")
			})
		})
	})
}

func TestAnnealCommand(t *testing.T) {
	Convey("Given a four act catalog", t, func() {
		path := writeCatalog(t, "show.csv", showCSV)

		Convey("When annealing with a seed and both pins", func() {
			out, err := run("", "anneal", path, "--start", "Opener", "--end", "Finale", "--seed", "42")

			Convey("Then the best order keeps the pins", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Best collisions")
				So(out, ShouldContainSubstring, "seed 42")
			})
		})

		Convey("When the parameters are invalid", func() {
			_, err := run("", "anneal", path, "--iterations=-1")

			So(errors.Is(err, search.ErrInvalidParams), ShouldBeTrue)
		})
	})
}

func TestExplainCommand(t *testing.T) {
	Convey("Given a four act catalog", t, func() {
		path := writeCatalog(t, "show.csv", showCSV)

		Convey("When explaining an order with three collisions", func() {
			out, err := run("", "explain", path, "Opener", "Duet", "Finale", "Solo")

			Convey("Then the cost and the collisions are listed", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Collisions: 3")
				So(out, ShouldContainSubstring, "Ben")
				So(out, ShouldContainSubstring, "Cleo")
			})
		})

		Convey("When an act is unknown", func() {
			_, err := run("", "explain", path, "Opener", "Encore")

			So(errors.Is(err, model.ErrUnknownAct), ShouldBeTrue)
		})

		Convey("When the order is partial", func() {
			out, err := run("", "explain", path, "Opener", "Solo")

			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Note:")
		})
	})
}
