package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/taskflow/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

const watchedRoster = `members:
  - id: a
    displayName: A
    capacity: {pointsPerSprint: 10}
items: []
`

const grownRoster = `members:
  - id: a
    displayName: A
    capacity: {pointsPerSprint: 10}
  - id: b
    displayName: B
    capacity: {pointsPerSprint: 20}
items: []
`

func TestWatcher(t *testing.T) {
	Convey("Given a watched roster file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "roster.yaml")
		So(os.WriteFile(path, []byte(watchedRoster), 0o600), ShouldBeNil)

		s, err := repository.NewInMemoryStore()
		So(err, ShouldBeNil)
		So(repository.ReloadFile(context.Background(), s, path), ShouldBeNil)

		reloads := make(chan error, 4)
		w, err := repository.NewWatcher(s, path,
			repository.WithDebounce(20*time.Millisecond),
			repository.WithReloadHook(func(_ context.Context, err error) {
				select {
				case reloads <- err:
				default:
				}
			}),
		)
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		So(w.Start(ctx), ShouldBeNil)
		defer func() { _ = w.Stop() }()

		Convey("When the file is rewritten", func() {
			So(os.WriteFile(path, []byte(grownRoster), 0o600), ShouldBeNil)

			Convey("Then the store picks up the new roster", func() {
				deadline := time.After(3 * time.Second)
				for s.Count(ctx).Members != 2 {
					select {
					case <-reloads:
					case <-deadline:
						t.Fatal("no successful reload observed")
					}
				}
				So(s.Count(ctx).Members, ShouldEqual, 2)
			})
		})

		Convey("When the file becomes invalid", func() {
			So(os.WriteFile(path, []byte("members: [{id: x}, {id: x}]\n"), 0o600), ShouldBeNil)

			Convey("Then the reload fails and the old roster stays", func() {
				select {
				case err := <-reloads:
					So(err, ShouldNotBeNil)
				case <-time.After(3 * time.Second):
					t.Fatal("no reload observed")
				}
				So(s.Count(ctx).Members, ShouldEqual, 1)
			})
		})
	})

	Convey("Given an unsupported file", t, func() {
		s, _ := repository.NewInMemoryStore()
		_, err := repository.NewWatcher(s, "roster.txt")
		So(err, ShouldNotBeNil)
	})
}
