package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/cursivecrow/cursive0-sema/internal/ast"
	"github.com/cursivecrow/cursive0-sema/internal/diag"
	"github.com/cursivecrow/cursive0-sema/internal/driver"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "Print version information")
		helpFlag    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("%s (semantic analysis core)\n", bold("cursive0-sema"))
		return
	}
	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	switch command := flag.Arg(0); command {
	case "check":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing project descriptor argument\n", red("Error"))
			fmt.Println("Usage: cursive0-sema check <project.yaml>")
			os.Exit(1)
		}
		runCheck(flag.Arg(1))
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), command)
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(bold("cursive0-sema - Cursive0 semantic analysis core"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  cursive0-sema <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s <project.yaml>   Typecheck every module a project descriptor names\n", cyan("check"))
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --version   Print version information")
	fmt.Println("  --help      Show this help message")
}

// runCheck loads a project descriptor and runs the full driver pipeline over
// it. Producing the parsed module ASTs the pipeline consumes is, like lexing
// and parsing generally, an external collaborator's job (spec.md §1); loadModules
// is the seam a real frontend plugs into.
func runCheck(projectPath string) {
	project, err := driver.LoadProject(projectPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	modules, err := loadModules(project)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	fmt.Printf("%s Typechecking %s (%d modules)...\n", cyan("→"), project.Name, len(project.Modules))
	result := driver.TypecheckModules(project, modules)
	printDiagnostics(result.Diags)

	if result.OK {
		fmt.Printf("\n%s No errors found (run %s)\n", green("✓"), result.RunID)
		return
	}
	fmt.Printf("\n%s %d diagnostic(s) (run %s)\n", red("✗"), len(result.Diags), result.RunID)
	os.Exit(1)
}

// loadModules does not read project.Files. This binary has no
// lexer/parser of its own — module ASTs arrive fully resolved from upstream
// (spec.md §1's "consumed as-is" boundary) — so this is the integration seam
// a real Cursive0 frontend fills in; absent one, a project descriptor's
// module list maps to empty module bodies rather than failing outright, so
// `check` still exercises project loading, ordering, and init planning.
func loadModules(project *driver.Project) (map[string]*ast.Module, error) {
	modules := make(map[string]*ast.Module, len(project.Modules))
	for _, path := range project.Modules {
		modules[path] = &ast.Module{Path: path}
	}
	return modules, nil
}

func printDiagnostics(diags []*diag.Diagnostic) {
	for _, d := range diags {
		badge := yellow("warn")
		if d.Severity == diag.Error {
			badge = red("error")
		}
		fmt.Printf("  [%s] %s: %s\n", badge, d.Code, d.Message)
		if d.Suggestion != "" {
			fmt.Printf("    %s %s\n", cyan("suggestion:"), d.Suggestion)
		}
	}
}
