package catalogfile_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/lineup/internal/adapters/catalogfile"
	"github.com/okian/lineup/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const showCSV = `Dance,Members,Notes
Season Dances,,
Opener,"Ana, Ben",
  Tango  ,"Ben,Cleo, ,Ben",late
,"ghost",
Side Projects,,
Finale,Cleo,
`

func TestReadCSV(t *testing.T) {
	Convey("Given a show CSV with section rows", t, func() {
		cat, err := catalogfile.Read(strings.NewReader(showCSV), catalogfile.FormatCSV)

		Convey("Then acts are read in file order without section rows", func() {
			So(err, ShouldBeNil)
			So(cat.Names(), ShouldResemble, []string{"Opener", "Tango", "Finale"})
		})

		Convey("And performers are split and trimmed", func() {
			p, err := cat.Performers("Tango")
			So(err, ShouldBeNil)
			So(p, ShouldResemble, []string{"Ben", "Cleo"})
		})
	})

	Convey("Given alternative header names", t, func() {
		in := "ACT,Performers\nA,x\nB,\"x,y\"\n"
		cat, err := catalogfile.Read(strings.NewReader(in), catalogfile.FormatCSV)
		So(err, ShouldBeNil)
		So(cat.Len(), ShouldEqual, 2)
	})

	Convey("Given custom skip names", t, func() {
		cat, err := catalogfile.Read(strings.NewReader(showCSV), catalogfile.FormatCSV,
			catalogfile.WithSkipNames("Finale"))
		So(err, ShouldBeNil)
		So(cat.Names(), ShouldResemble, []string{"Season Dances", "Opener", "Tango", "Side Projects"})
	})

	Convey("Given a CSV without a performers column", t, func() {
		_, err := catalogfile.Read(strings.NewReader("Dance\nA\n"), catalogfile.FormatCSV)
		So(errors.Is(err, catalogfile.ErrMissingColumn), ShouldBeTrue)
	})

	Convey("Given a CSV with a repeated act", t, func() {
		_, err := catalogfile.Read(strings.NewReader("Dance,Members\nA,x\nA,y\n"), catalogfile.FormatCSV)
		So(errors.Is(err, model.ErrDuplicateAct), ShouldBeTrue)
	})

	Convey("Given an empty CSV", t, func() {
		cat, err := catalogfile.Read(strings.NewReader(""), catalogfile.FormatCSV)
		So(err, ShouldBeNil)
		So(cat.Len(), ShouldEqual, 0)
	})
}

func TestReadStructured(t *testing.T) {
	Convey("Given a YAML catalog", t, func() {
		in := `
acts:
  - name: X
    performers: [a, b]
  - name: Y
    performers: [b, c]
`
		cat, err := catalogfile.Read(strings.NewReader(in), catalogfile.FormatYAML)
		So(err, ShouldBeNil)
		So(cat.Names(), ShouldResemble, []string{"X", "Y"})
	})

	Convey("Given a YAML catalog with an unknown field", t, func() {
		in := "acts:\n  - name: X\n    dancers: [a]\n"
		_, err := catalogfile.Read(strings.NewReader(in), catalogfile.FormatYAML)
		So(err, ShouldNotBeNil)
	})

	Convey("Given a TOML catalog", t, func() {
		in := `
[[acts]]
name = "X"
performers = ["a", "b"]

[[acts]]
name = "Z"
performers = ["c"]
`
		cat, err := catalogfile.Read(strings.NewReader(in), catalogfile.FormatTOML)
		So(err, ShouldBeNil)
		So(cat.Names(), ShouldResemble, []string{"X", "Z"})
		p, _ := cat.Performers("X")
		So(p, ShouldResemble, []string{"a", "b"})
	})

	Convey("Given a TOML catalog with an unknown key", t, func() {
		in := "[[acts]]\nname = \"X\"\nmembers = [\"a\"]\n"
		_, err := catalogfile.Read(strings.NewReader(in), catalogfile.FormatTOML)
		So(err, ShouldNotBeNil)
	})

	Convey("Given an unknown format", t, func() {
		_, err := catalogfile.Read(strings.NewReader(""), catalogfile.Format("xml"))
		So(errors.Is(err, catalogfile.ErrUnsupportedFormat), ShouldBeTrue)
	})
}

func TestLoad(t *testing.T) {
	Convey("Given catalog files on disk", t, func() {
		dir := t.TempDir()
		write := func(name, body string) string {
			p := filepath.Join(dir, name)
			So(os.WriteFile(p, []byte(body), 0o600), ShouldBeNil)
			return p
		}

		Convey("Then the extension selects the decoder", func() {
			cat, err := catalogfile.Load(write("show.csv", showCSV))
			So(err, ShouldBeNil)
			So(cat.Len(), ShouldEqual, 3)

			cat, err = catalogfile.Load(write("show.yml", "acts:\n  - name: A\n    performers: [x]\n"))
			So(err, ShouldBeNil)
			So(cat.Len(), ShouldEqual, 1)
		})

		Convey("Then unknown extensions are rejected", func() {
			_, err := catalogfile.Load(write("show.txt", ""))
			So(errors.Is(err, catalogfile.ErrUnsupportedFormat), ShouldBeTrue)
		})

		Convey("Then missing files fail", func() {
			_, err := catalogfile.Load(filepath.Join(dir, "nope.csv"))
			So(err, ShouldNotBeNil)
		})
	})
}
