// Package git collects review inputs from a repository by shelling
// out to the git CLI, mirroring what the review gate sees: staged
// changes or the diff against a base branch.
package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DiffAgainst returns the paths and current contents of files changed
// relative to base (e.g. "main"). Deleted files are skipped.
func DiffAgainst(root, base string) ([]string, [][]byte, error) {
	validRoot, err := validateRoot(root)
	if err != nil {
		return nil, nil, err
	}
	out, err := exec.Command("git", "-C", validRoot, "diff", "--name-only", base).Output()
	if err != nil {
		return nil, nil, fmt.Errorf("git diff vs %s: %w", base, err)
	}
	return readWorkingTree(validRoot, splitLines(out))
}

// StagedFiles returns the paths and staged contents of the index.
func StagedFiles(root string) ([]string, [][]byte, error) {
	validRoot, err := validateRoot(root)
	if err != nil {
		return nil, nil, err
	}
	out, err := exec.Command("git", "-C", validRoot, "diff", "--name-only", "--cached").Output()
	if err != nil {
		return nil, nil, fmt.Errorf("git staged diff: %w", err)
	}
	var files []string
	var data [][]byte
	for _, p := range splitLines(out) {
		blob, err := exec.Command("git", "-C", validRoot, "show", ":"+p).Output()
		if err != nil {
			continue // deleted or unreadable in index
		}
		files = append(files, p)
		data = append(data, blob)
	}
	return files, data, nil
}

// HeadCommit returns the current HEAD hash, or empty string outside a
// repository.
func HeadCommit(root string) string {
	validRoot, err := validateRoot(root)
	if err != nil {
		return ""
	}
	out, err := exec.Command("git", "-C", validRoot, "rev-parse", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func readWorkingTree(root string, paths []string) ([]string, [][]byte, error) {
	var files []string
	var data [][]byte
	for _, p := range paths {
		blob, err := exec.Command("git", "-C", root, "show", ":"+p).Output()
		if err != nil {
			continue
		}
		files = append(files, p)
		data = append(data, blob)
	}
	return files, data, nil
}

func splitLines(out []byte) []string {
	var lines []string
	for _, l := range strings.Split(string(out), "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func validateRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	return abs, nil
}
