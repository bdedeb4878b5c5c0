package core_test

import (
	"context"
	"fmt"
	"os"

	"github.com/mergeguard/mergeguard/pkg/core"
)

// ExampleAnalyze demonstrates analyzing one file with the built-in
// scanner set.
func ExampleAnalyze() {
	// 1. Describe the input
	in := core.Input{
		Source:   "api_key = \"sk-XXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX\"\n",
		Filename: "config.py",
		Language: "python",
	}

	// 2. Run the analysis
	res, err := core.Analyze(context.Background(), in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		return
	}

	// 3. Process findings
	if res.Total == 0 {
		fmt.Println("No violations found.")
	} else {
		fmt.Printf("Found %d violations.\n", res.Total)
		// Helper to write JSON output to stdout
		_ = core.MarshalFindings(os.Stdout, res.Findings)
	}
}

// ExampleDecide shows how to turn findings into a gate decision.
func ExampleDecide() {
	res, err := core.Analyze(context.Background(), core.Input{
		Source:   "print('debug')\n",
		Filename: "job.py",
		Language: "python",
	})
	if err != nil {
		panic(err)
	}

	d := core.Decide(core.DefaultPolicy(), res.Findings, false)
	fmt.Printf("status: %s block: %v\n", d.Status, d.ShouldBlock)
}
