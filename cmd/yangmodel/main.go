// Command yangmodel is the CLI driver described by it loads a
// YANG-library manifest plus a module search path, builds a data model,
// and prints or validates against it. The core library (this repo's root
// package) treats this binary as an external collaborator — everything
// here is a thin wrapper over yangmodel's public API.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/go-yang/yangmodel"
	"github.com/go-yang/yangmodel/internal/cliconfig"
)

// exit codes.
const (
	exitOK             = 0
	exitFileProblem    = 1
	exitDataModelError = 2
	exitValidationFail = 3
)

var (
	flagConfig     string
	flagLibrary    string
	flagSearchDirs []string
	flagNoTypes    bool
	flagValCount   bool
	flagScope      string
	flagCtype      string
)

func main() {
	root := &cobra.Command{
		Use:   "yangmodel",
		Short: "Compile a YANG data model and inspect or validate against it",
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&flagLibrary, "library", "", "path to a YANG-library (RFC 7895) JSON document")
	root.PersistentFlags().StringSliceVar(&flagSearchDirs, "search-dir", nil, "directory to search for *.yang files (repeatable)")

	root.AddCommand(
		newIDCmd(),
		newTreeCmd(),
		newDigestCmd(),
		newValidateCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFileProblem)
	}
}

func loadModel() (*yangmodel.Registry, *yangmodel.SchemaNode, *yangmodel.YangLibrary, error) {
	cfg, err := cliconfig.Load(flagConfig)
	if err != nil {
		return nil, nil, nil, err
	}
	dirs, libPath := cfg.Merge(flagSearchDirs, flagLibrary)
	if libPath == "" {
		return nil, nil, nil, fmt.Errorf("yangmodel: no --library given and none configured")
	}
	data, err := os.ReadFile(libPath)
	if err != nil {
		return nil, nil, nil, err
	}
	lib, err := yangmodel.ParseYangLibrary(data)
	if err != nil {
		return nil, nil, nil, err
	}
	registry, err := yangmodel.RegisterModules(lib, dirs)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := registry.ValidateFeaturePrerequisites(); err != nil {
		return nil, nil, nil, err
	}
	implemented := registry.ImplementedModules(lib)
	root, err := registry.BuildSchema(implemented)
	if err != nil {
		return nil, nil, nil, err
	}
	return registry, root, lib, nil
}

func newIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print the module-set id",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, lib, err := loadModel()
			if err != nil {
				glog.Errorf("yangmodel: %v", err)
				os.Exit(exitDataModelError)
			}
			fmt.Println(yangmodel.ModuleSetID(lib.Modules))
			return nil
		},
	}
}

func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the schema as an ASCII tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, _, err := loadModel()
			if err != nil {
				glog.Errorf("yangmodel: %v", err)
				os.Exit(exitDataModelError)
			}
			fmt.Print(yangmodel.RenderASCIITree(root, flagNoTypes))
			if flagValCount {
				printValCounts(root)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagNoTypes, "no-types", false, "omit <type> annotations")
	cmd.Flags().BoolVar(&flagValCount, "val-count", false, "print each node's validation counter")
	return cmd
}

func printValCounts(n *yangmodel.SchemaNode) {
	fmt.Printf("%s: %d\n", n.Route(), n.ValidationCount())
	for _, c := range n.DataChildren() {
		printValCounts(c)
	}
}

func newDigestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Print the schema digest as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, _, err := loadModel()
			if err != nil {
				glog.Errorf("yangmodel: %v", err)
				os.Exit(exitDataModelError)
			}
			out, err := yangmodel.MarshalSchemaDigest(root)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <instance-file>",
		Short: "Validate a JSON instance document against the data model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, root, _, err := loadModel()
			if err != nil {
				glog.Errorf("yangmodel: %v", err)
				os.Exit(exitDataModelError)
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				glog.Errorf("yangmodel: %v", err)
				os.Exit(exitFileProblem)
			}
			var raw map[string]interface{}
			if err := json.Unmarshal(data, &raw); err != nil {
				glog.Errorf("yangmodel: invalid JSON: %v", err)
				os.Exit(exitFileProblem)
			}
			obj, err := yangmodel.DecodeInstance(root, raw)
			if err != nil {
				glog.Errorf("yangmodel: %v", err)
				os.Exit(exitFileProblem)
			}
			focus := yangmodel.NewRootFocus(root, obj, 0)
			scope, err := parseScope(flagScope)
			if err != nil {
				return err
			}
			ctype, err := parseCtype(flagCtype)
			if err != nil {
				return err
			}
			if err := yangmodel.Validate(focus, scope, ctype); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(exitValidationFail)
			}
			fmt.Println("valid")
			return nil
		},
	}
	cmd.Flags().StringVar(&flagScope, "scope", "all", "validation scope: syntax|semantics|all")
	cmd.Flags().StringVar(&flagCtype, "ctype", "all", "content type: config|nonconfig|all")
	return cmd
}

func parseScope(s string) (yangmodel.ValidationScope, error) {
	switch s {
	case "syntax":
		return yangmodel.ScopeSyntax, nil
	case "semantics":
		return yangmodel.ScopeSemantics, nil
	case "all", "":
		return yangmodel.ScopeAll, nil
	default:
		return 0, fmt.Errorf("yangmodel: unknown --scope %q", s)
	}
}

func parseCtype(s string) (yangmodel.ContentType, error) {
	switch s {
	case "config":
		return yangmodel.ContentConfig, nil
	case "nonconfig":
		return yangmodel.ContentNonConfig, nil
	case "all", "":
		return yangmodel.ContentAll, nil
	default:
		return 0, fmt.Errorf("yangmodel: unknown --ctype %q", s)
	}
}
