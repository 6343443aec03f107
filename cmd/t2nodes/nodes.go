package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"t2nodes/internal/diag"
	"t2nodes/pkg/contract"
	rfs "t2nodes/plugins/reader/filesystem"
)

var titleStyle = lipgloss.NewStyle().Bold(true)

func newNodesCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List registered nodes and their output ports",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			specs := make([]contract.NodeSpec, 0, len(a.rt.Nodes))
			for _, n := range a.rt.Nodes {
				specs = append(specs, n.Spec())
			}
			sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
			if asJSON || !diag.IsTTY(a.stdout) {
				return writeIndented(a.stdout, specs)
			}
			return printNodeTable(a.stdout, specs)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出（非 TTY 时默认）")
	return cmd
}

func printNodeTable(w io.Writer, specs []contract.NodeSpec) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, titleStyle.Render("NAME")+"\t"+titleStyle.Render("DISPLAY NAME")+"\t"+titleStyle.Render("OUTPUTS"))
	for _, s := range specs {
		ports := make([]string, 0, len(s.Outputs))
		for _, p := range s.Outputs {
			if p.List {
				ports = append(ports, fmt.Sprintf("%s:%s[]", p.Name, p.Type))
			} else {
				ports = append(ports, fmt.Sprintf("%s:%s", p.Name, p.Type))
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.DisplayName, strings.Join(ports, ", "))
	}
	return tw.Flush()
}

func newExecCmd(a *app) *cobra.Command {
	var (
		input     string
		sets      []string
		textFiles []string
	)
	cmd := &cobra.Command{
		Use:   "exec <node>",
		Short: "Execute one node with a JSON input",
		Long: `Execute one node. The input object is read from --input (file or "-" for stdin),
then --text-file port=path loads text ports from files or directories,
and --set key=value overrides single keys (value parsed as JSON when valid, else a string).`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			n, ok := a.rt.Nodes[name]
			if !ok {
				return fmt.Errorf("%w: %q", contract.ErrUnknownNode, name)
			}
			obj, err := a.readInput(input)
			if err != nil {
				return err
			}
			for _, tf := range textFiles {
				port, path, ok := strings.Cut(tf, "=")
				if !ok || port == "" || path == "" {
					return fmt.Errorf("%w: --text-file expects port=path, got %q", contract.ErrInvalidInput, tf)
				}
				text, err := rfs.ReadText(cmd.Context(), a.rt.Reader, []string{path})
				if err != nil {
					return err
				}
				b, _ := json.Marshal(text)
				obj[port] = b
			}
			for _, kv := range sets {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || k == "" {
					return fmt.Errorf("%w: --set expects key=value, got %q", contract.ErrInvalidInput, kv)
				}
				obj[k] = setValue(v)
			}
			raw, err := json.Marshal(obj)
			if err != nil {
				return err
			}
			timer := a.logger.StartWith("cli", "exec", name, "", nil)
			res, err := n.Execute(cmd.Context(), raw)
			if err != nil {
				timer.Fail(err)
				diag.IncOp("cli", "exec", "error")
				return err
			}
			timer.Finish("exec", int64(len(res)))
			diag.IncOp("cli", "exec", "success")
			return writeIndented(a.stdout, map[string]any{"node": name, "outputs": res})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", `输入 JSON 文件；"-" 表示 stdin`)
	f.StringArrayVar(&sets, "set", nil, "覆盖单个输入键 key=value（可重复）")
	f.StringArrayVar(&textFiles, "text-file", nil, "从文件/目录读取文本端口 port=path（可重复）")
	return cmd
}

// readInput 读取输入对象；空输入得到空对象。
func (a *app) readInput(path string) (map[string]json.RawMessage, error) {
	obj := map[string]json.RawMessage{}
	var b []byte
	var err error
	switch path {
	case "":
		return obj, nil
	case "-":
		b, err = io.ReadAll(a.stdin)
	default:
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return obj, nil
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, fmt.Errorf("%w: input must be a JSON object: %v", contract.ErrInvalidInput, err)
	}
	return obj, nil
}

func setValue(v string) json.RawMessage {
	if json.Valid([]byte(v)) {
		return json.RawMessage(v)
	}
	b, _ := json.Marshal(v)
	return b
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
