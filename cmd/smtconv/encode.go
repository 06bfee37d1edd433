package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/edgeflare/smtconv/pkg/pipeline"
	"github.com/spf13/cobra"
)

func newEncodeCmd(a *app) *cobra.Command {
	var (
		input      string
		format     string
		printTopic bool
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode JSON records and print the result",
		Long: `Reads JSON records like {"topic":"shop.orders","key":1,"value":{...}} from
stdin or --input and prints one encoded value per line. Records dropped by a
transformation print nothing.`,
		Example: `  echo '{"topic":"shop.orders","value":{"id":1}}' | smtconv encode --format hex`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "raw", "hex", "base64":
			default:
				return fmt.Errorf("invalid format %q, want raw, hex or base64", format)
			}

			key, value, err := a.converters()
			if err != nil {
				return err
			}
			defer closeConverters(key, value)

			p, err := pipeline.NewProducer(pipeline.NewManager(a.logger), key, value, nil, a.logger)
			if err != nil {
				return err
			}

			r, err := openInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer r.Close()

			out := cmd.OutOrStdout()
			return readInputs(r, func(in pipeline.Input) error {
				msg, err := p.Encode(in)
				if err != nil || msg == nil {
					return err
				}
				if printTopic {
					fmt.Fprintf(out, "%s\t", msg.Topic)
				}
				return writeEncoded(out, format, msg.Value)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "read records from this file instead of stdin")
	f.StringVarP(&format, "format", "f", "raw", "output format: raw, hex or base64")
	f.BoolVar(&printTopic, "print-topic", false, "prefix each line with the topic after transformation")
	return cmd
}

func writeEncoded(w io.Writer, format string, data []byte) error {
	var err error
	switch format {
	case "hex":
		_, err = fmt.Fprintln(w, hex.EncodeToString(data))
	case "base64":
		_, err = fmt.Fprintln(w, base64.StdEncoding.EncodeToString(data))
	default:
		if _, err = w.Write(data); err == nil {
			_, err = fmt.Fprintln(w)
		}
	}
	return err
}
