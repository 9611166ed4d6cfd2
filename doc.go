// Package skillupx turns a bare coding-challenge solution into a complete,
// runnable program for a stdin/stdout judge.
//
// # Overview
//
// A submission is only the function (or Solution class) the user wrote. The
// wrapper derives the function name from the problem title, appends a driver
// that reads the test input from stdin, calls the function and prints the
// result, and hands the program to an execution backend.
//
// # Basic Usage
//
//	w := wrapper.New(wrapper.WithLanguages(language.All()...))
//
//	res, err := w.Wrap(code, "Two Sum", "python")
//	fmt.Println(res.FunctionName) // twoSum
//	fmt.Println(res.WrappedCode)
//
// # Executing
//
//	r := judge0.New("http://localhost:2358")
//	report, err := runner.RunCases(ctx, r, runner.Submission{
//	    Language: res.Language,
//	    Source:   res.WrappedCode,
//	}, p.Tests)
//
// See the [wrapper], [language], [runner] and [problem] packages for the API,
// and cmd/skillupx for the CLI and HTTP server.
package skillupx
