package main

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"math/big"
	"os"
	"os/exec"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/pontaoski/plc/environment"
	"github.com/pontaoski/plc/generator"
	"github.com/pontaoski/plc/interpreter"
	"github.com/pontaoski/plc/llvmgen"
	"github.com/pontaoski/plc/types"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"
)

// entry picks the source file: the first argument, else the manifest's Entry.
func entry(c *cli.Context) (string, plcModule, error) {
	mod, err := readModule(manifestName)
	if err != nil {
		return "", mod, err
	}
	if file := c.Args().First(); file != "" {
		return file, mod, nil
	}
	return mod.Entry, mod, nil
}

// stage loads the entry file and runs it through step, reporting any error
// against the source.
func stage(c *cli.Context, step func(*unit) error) (*unit, plcModule, error) {
	file, mod, err := entry(c)
	if err != nil {
		return nil, mod, err
	}
	u, err := load(file)
	if err != nil {
		return nil, mod, err
	}
	if err := step(u); err != nil {
		report(err, u)
		return nil, mod, cli.Exit("", 1)
	}
	return u, mod, nil
}

func main() {
	app := &cli.App{
		Name:  "plc",
		Usage: "plc compiler and interpreter",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "verbose",
				Usage:       "trace pipeline stages",
				Destination: &verbose,
			},
		},
		ExitErrHandler: func(context *cli.Context, err error) {
			if err == nil {
				return
			}
			if exit, ok := err.(cli.ExitCoder); ok {
				if msg := exit.Error(); msg != "" {
					fmt.Fprintln(os.Stderr, msg)
				}
				os.Exit(exit.ExitCode())
			}
			log.Fatalf("error with plc: %s", err)
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "init a directory",
				Action: func(c *cli.Context) error {
					name := c.Args().First()
					if name == "" {
						return cli.Exit("no module name provided", 1)
					}
					return writeModule(manifestName, newModule(name))
				},
			},
			{
				Name:  "tokens",
				Usage: "dump the tokens of a file",
				Action: func(c *cli.Context) error {
					u, _, err := stage(c, (*unit).lex)
					if err != nil {
						return err
					}
					for _, tok := range u.tokens {
						fmt.Printf("%s %s\n", types.SpanOf(u.source, tok, u.filename), tok)
					}
					return nil
				},
			},
			{
				Name:  "parse",
				Usage: "dump the syntax tree of a file",
				Action: func(c *cli.Context) error {
					u, _, err := stage(c, (*unit).parse)
					if err != nil {
						return err
					}
					repr.Println(u.tree)
					return nil
				},
			},
			{
				Name:  "check",
				Usage: "analyze a file and list its declarations",
				Action: func(c *cli.Context) error {
					u, _, err := stage(c, (*unit).analyze)
					if err != nil {
						return err
					}
					for _, f := range u.tree.Fields {
						fmt.Printf("%s %s\n", f, yellow(f.Variable.Type))
					}
					for _, m := range u.tree.Methods {
						var params []string
						for _, t := range m.Function.ParameterTypes {
							params = append(params, t.String())
						}
						fmt.Printf("%s %s\n", m, yellow(fmt.Sprintf("(%s) %s", strings.Join(params, ", "), m.Function.ReturnType)))
					}
					fmt.Println(green("ok"))
					return nil
				},
			},
			{
				Name:  "run",
				Usage: "interpret a file; main's result is the exit status",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "unchecked",
						Usage: "skip static analysis",
					},
				},
				Action: func(c *cli.Context) error {
					step := (*unit).analyze
					if c.Bool("unchecked") {
						step = (*unit).parse
					}
					u, _, err := stage(c, step)
					if err != nil {
						return err
					}

					result, err := interpreter.New(nil, os.Stdout).Run(u.tree)
					if err != nil {
						report(err, u)
						return cli.Exit("", 1)
					}
					trace("main returned %s", result)
					if result.Kind == environment.IntegerKind {
						return cli.Exit("", int(result.Value.(*big.Int).Int64()))
					}
					return nil
				},
			},
			{
				Name:  "generate",
				Usage: "translate a file to Java",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "Java file to write, - for standard output",
					},
				},
				Action: func(c *cli.Context) error {
					u, mod, err := stage(c, (*unit).analyze)
					if err != nil {
						return err
					}
					out := c.String("output")
					if out == "" {
						out = mod.Output
					}

					var w io.Writer = os.Stdout
					if out != "-" {
						fi, err := os.Create(out)
						if err != nil {
							return err
						}
						defer fi.Close()
						w = fi
					}
					if err := generator.Generate(w, u.tree); err != nil {
						return err
					}
					trace("wrote %s", out)
					return nil
				},
			},
			{
				Name:  "build",
				Usage: "compile a file to a native executable through LLVM",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name: "output",
					},
					&cli.BoolFlag{
						Name:  "dump",
						Value: false,
					},
				},
				Action: func(c *cli.Context) error {
					u, mod, err := stage(c, (*unit).analyze)
					if err != nil {
						return err
					}
					out := c.String("output")
					if out == "" {
						out = mod.Package
					}
					if out == "" {
						out = strings.TrimSuffix(u.filename, ".plc")
					}

					m, err := llvmgen.Generate(u.tree)
					if err != nil {
						report(err, u)
						return cli.Exit("", 1)
					}
					module := m.String()

					if c.Bool("dump") {
						fmt.Println(module)
						return nil
					}

					fi, err := ioutil.TempFile("/tmp", "*.ll")
					if err != nil {
						return err
					}
					defer os.Remove(fi.Name())
					defer fi.Close()
					_, err = io.Copy(fi, strings.NewReader(module))
					if err != nil {
						return err
					}

					cmd := exec.Command("clang", "-o", out, fi.Name())
					cmd.Stdout = os.Stdout
					cmd.Stderr = os.Stderr
					trace("running %s", strings.Join(cmd.Args, " "))

					err = cmd.Run()
					if err != nil {
						tracerr.PrintSourceColor(tracerr.Wrap(err))
						return cli.Exit("", 1)
					}
					return nil
				},
			},
			{
				Name:  "repl",
				Usage: "start an interactive session",
				Action: func(c *cli.Context) error {
					return repl(os.Stdout)
				},
			},
		},
	}
	app.Run(os.Args)
}
