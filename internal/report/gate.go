package report

import "github.com/hermit-shells/hermit/internal/types"

// HighestRank returns the highest severity rank among findings, or 0 when
// there are none.
func HighestRank(findings []types.Finding) int {
	highest := 0
	for _, f := range findings {
		if r := types.Rank(f.Severity); r > highest {
			highest = r
		}
	}
	return highest
}

// ShouldFail reports whether findings trip the failOn threshold. An empty
// threshold never fails. An unrecognized threshold ranks 0 and therefore
// fails every run it is given to.
func ShouldFail(findings []types.Finding, failOn string) bool {
	if failOn == "" {
		return false
	}
	return HighestRank(findings) >= types.Rank(types.Severity(failOn))
}

// ExitCode maps ShouldFail to a process exit status: 1 to fail, 0 to pass.
func ExitCode(findings []types.Finding, failOn string) int {
	if ShouldFail(findings, failOn) {
		return 1
	}
	return 0
}
