package testhelpers

import (
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"
)

// Scene is an on-disk repository in a temporary directory, for code that works
// with paths such as the config loader and the CLI.
type Scene struct {
	Dir  string
	Repo *GitRepo
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene)

// NewScene creates a repository in t.TempDir(); the directory is removed when the test ends.
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()
	dir := t.TempDir()

	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	scene := &Scene{Dir: dir, Repo: OpenGitRepo(t, dir)}
	if setup != nil {
		setup(scene)
	}
	return scene
}

// BasicSceneSetup creates a single commit on main and checks main out.
func BasicSceneSetup(scene *Scene) {
	root := scene.Repo.CreateChangeAndCommit("1", map[string]string{"1.txt": "1"})
	scene.Repo.SetBranch("main", root)
	scene.Repo.SetHead("main")
}
