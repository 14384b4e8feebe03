package gitctx

import (
	"os/exec"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// RepoInfo is the revision a document was generated from.
type RepoInfo struct {
	Revision string `json:"revision,omitempty"`
	Branch   string `json:"branch,omitempty"`
	Dirty    bool   `json:"dirty,omitempty"`
}

// ShortRevision returns the first 12 characters of the revision.
func (r *RepoInfo) ShortRevision() string {
	if r == nil {
		return ""
	}
	if len(r.Revision) > 12 {
		return r.Revision[:12]
	}
	return r.Revision
}

// Collect returns revision info for the repository containing target, or
// nil when target is not inside a git work tree.
func Collect(target string) *RepoInfo {
	// Prefer go-git; the CLI covers layouts go-git cannot open (worktrees, alternates).
	if info := collectGoGit(target); info != nil {
		return info
	}
	if _, err := exec.LookPath("git"); err != nil {
		return nil
	}
	if !isRepoCLI(target) {
		return nil
	}
	sha := runGit(target, "rev-parse", "HEAD")
	if sha == "" {
		return nil
	}
	branch := runGit(target, "rev-parse", "--abbrev-ref", "HEAD")
	if branch == "HEAD" {
		branch = ""
	}
	return &RepoInfo{
		Revision: sha,
		Branch:   branch,
		Dirty:    runGit(target, "status", "--porcelain") != "",
	}
}

func collectGoGit(target string) *RepoInfo {
	repo, err := git.PlainOpenWithOptions(target, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil
	}
	head, err := repo.Head()
	if err != nil {
		return nil
	}
	info := &RepoInfo{Revision: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}

	if wt, err := repo.Worktree(); err == nil {
		if st, err := wt.Status(); err == nil {
			info.Dirty = !st.IsClean()
		}
	}
	return info
}

func isRepoCLI(target string) bool {
	return runGit(target, "rev-parse", "--is-inside-work-tree") == "true"
}

func runGit(dir string, args ...string) string {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, _ := cmd.Output()
	return strings.TrimSpace(string(out))
}
