// Package cli wires the tethls commands: batch checks, tree dumps,
// go-to-definition queries, and watch mode.
package cli

import (
	"io"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yaklabco/tethls/internal/ui/pretty"
)

// HelpStyles holds the styles of command help sections.
type HelpStyles struct {
	Command    lipgloss.Style
	Heading    lipgloss.Style
	Subcommand lipgloss.Style
	Flag       lipgloss.Style
	Example    lipgloss.Style
	Dim        lipgloss.Style
}

// NewHelpStyles returns colored styles, or plain ones when color is off.
func NewHelpStyles(colorEnabled bool) *HelpStyles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &HelpStyles{plain, plain, plain, plain, plain, plain}
	}
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return &HelpStyles{
		Command:    fg("14").Bold(true),
		Heading:    fg("11").Bold(true),
		Subcommand: fg("10"),
		Flag:       fg("12"),
		Example:    fg("8"),
		Dim:        fg("8"),
	}
}

// HelpFormatter renders styled help and usage for cobra commands.
type HelpFormatter struct {
	styles *HelpStyles
}

// NewHelpFormatter creates a formatter for the given color mode and writer.
func NewHelpFormatter(colorMode string, writer io.Writer) *HelpFormatter {
	return &HelpFormatter{styles: NewHelpStyles(pretty.IsColorEnabled(colorMode, writer))}
}

const usageTemplate = `{{heading "Usage:"}}{{if .Runnable}}
  {{command .UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{command .CommandPath}} [command]{{end}}{{if .HasExample}}

{{heading "Examples:"}}
{{example .Example}}{{end}}{{if .HasAvailableSubCommands}}

{{heading "Available Commands:"}}{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{subcommand (rpad .Name .NamePadding)}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

{{heading "Flags:"}}
{{flags .LocalFlags}}{{end}}{{if .HasAvailableInheritedFlags}}

{{heading "Global Flags:"}}
{{flags .InheritedFlags}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{command (print .CommandPath " [command] --help")}}" for more information about a command.{{end}}
`

const helpTemplate = `{{with (or .Long .Short)}}{{trim .}}

{{end}}` + usageTemplate

func (h *HelpFormatter) funcs() template.FuncMap {
	return template.FuncMap{
		"heading":    h.styles.Heading.Render,
		"command":    h.styles.Command.Render,
		"subcommand": h.styles.Subcommand.Render,
		"example":    h.styles.Example.Render,
		"flags":      h.flagUsages,
		"rpad":       rpad,
		"trim":       func(s string) string { return strings.TrimRight(s, " \t\n") },
	}
}

// flagUsages styles the flag names of pflag's usage lines and dims their
// value types.
func (h *HelpFormatter) flagUsages(set *pflag.FlagSet) string {
	lines := strings.Split(strings.TrimSuffix(set.FlagUsages(), "\n"), "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		gap := strings.Index(trimmed, "   ")
		if gap < 0 {
			continue
		}
		var names []string
		for _, field := range strings.Fields(trimmed[:gap]) {
			if strings.HasPrefix(field, "-") {
				comma := strings.HasSuffix(field, ",")
				field = h.styles.Flag.Render(strings.TrimSuffix(field, ","))
				if comma {
					field += ","
				}
			} else {
				field = h.styles.Dim.Render(field)
			}
			names = append(names, field)
		}
		lines[i] = line[:len(line)-len(trimmed)] + strings.Join(names, " ") + "   " + strings.TrimLeft(trimmed[gap:], " ")
	}
	return strings.Join(lines, "\n")
}

// ApplyToCommand installs the styled templates on cmd. Subcommands inherit
// them.
func (h *HelpFormatter) ApplyToCommand(cmd *cobra.Command) {
	usage := template.Must(template.New("usage").Funcs(h.funcs()).Parse(usageTemplate))
	help := template.Must(template.New("help").Funcs(h.funcs()).Parse(helpTemplate))

	cmd.SetUsageFunc(func(c *cobra.Command) error {
		return usage.Execute(c.OutOrStderr(), c)
	})
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		if err := help.Execute(c.OutOrStdout(), c); err != nil {
			c.PrintErrln(err)
		}
	})
}

func rpad(s string, padding int) string {
	if len(s) >= padding {
		return s
	}
	return s + strings.Repeat(" ", padding-len(s))
}
