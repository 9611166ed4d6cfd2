// Package wrapper turns a bare function or Solution class into a complete
// program that reads its arguments from stdin and prints the result to stdout.
//
// # Overview
//
// A submission is wrapped in three steps: the problem title becomes a
// camelCase function name, the problem's signature and stdin layout are
// resolved, and a per-language template renders the final source. The result
// is ready to hand to a sandboxed judge.
//
// # Basic Usage
//
//	w := wrapper.New(wrapper.WithLanguages(language.All()...))
//
//	res, err := w.WrapRequest(wrapper.Request{
//	    Code:     "def twoSum(nums, target): ...",
//	    Language: "python",
//	    Problem: wrapper.ProblemSpec{
//	        Title:         "Two Sum",
//	        SignatureHint: "nums: int[], target: int -> int[]",
//	        InputFormat:   "n target\nnums",
//	    },
//	})
//	fmt.Println(res.WrappedCode)
//
// # Submission Shapes
//
// Callers choose the shape explicitly. [ShapeFunction] calls a standalone
// function named after the problem; [ShapeClass] instantiates Solution and
// calls the method of the same name. The wrapper never inspects the submitted
// code to guess.
//
// # Input Formats
//
// An input format lists, per stdin line, the fields carried on that line:
//
//	n target
//	nums
//
// Names that are not parameters (n above) are counters and are skipped. A list
// parameter takes every remaining token on its line. A string that is alone on
// its line takes the whole line.
//
// # Language Interface
//
// To add a target language, implement the [Language] interface.
// See [github.com/skillupx/skillupx/language/python] for an example.
package wrapper
