// Command speechctl talks to a running speechbox server.
//
//	speechctl tts -text "hello" -out hello.wav
//	speechctl stt -in hello.wav
//	speechctl roundtrip -text "hello there"
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/satriahrh/speechbox/client"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "tts":
		err = runTTS(ctx, os.Args[2:], os.Stdout)
	case "stt":
		err = runSTT(ctx, os.Args[2:], os.Stdout)
	case "roundtrip":
		err = runRoundTrip(ctx, os.Args[2:], os.Stdout)
	case "speakers":
		err = runSpeakers(ctx, os.Args[2:], os.Stdout)
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "speechctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: speechctl <tts|stt|roundtrip|speakers> [flags]")
}

type commonFlags struct {
	server  string
	verbose bool
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	server := os.Getenv("SPEECHBOX_URL")
	if server == "" {
		server = client.DefaultBaseURL
	}
	fs.StringVar(&f.server, "server", server, "speechbox base URL")
	fs.BoolVar(&f.verbose, "v", false, "log requests")
}

func (f *commonFlags) client() *client.Client {
	logger := zap.NewNop()
	if f.verbose {
		logger, _ = zap.NewDevelopment()
	}
	return client.New(f.server, client.WithLogger(logger))
}

func runTTS(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("tts", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	text := fs.String("text", "", "text to synthesize")
	outPath := fs.String("out", "tts.wav", "output WAV file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*text) == "" {
		return fmt.Errorf("-text is required")
	}

	wav, err := common.client().Synthesize(ctx, *text)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*outPath, wav, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *outPath, err)
	}

	fmt.Fprintf(out, "wrote %d bytes to %s\n", len(wav), *outPath)
	return nil
}

func runSTT(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("stt", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	inPath := fs.String("in", "", "WAV file to transcribe")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" {
		return fmt.Errorf("-in is required")
	}

	f, err := os.Open(*inPath)
	if err != nil {
		return err
	}
	defer f.Close()

	text, err := common.client().Transcribe(ctx, filepath.Base(*inPath), f)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, text)
	return nil
}

func runRoundTrip(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("roundtrip", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	text := fs.String("text", "The quick brown fox jumps over the lazy dog.", "text to synthesize")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c := common.client()
	wav, err := c.Synthesize(ctx, *text)
	if err != nil {
		return fmt.Errorf("synthesis: %w", err)
	}
	heard, err := c.Transcribe(ctx, "roundtrip.wav", bytes.NewReader(wav))
	if err != nil {
		return fmt.Errorf("transcription: %w", err)
	}

	fmt.Fprintf(out, "sent:    %s\n", *text)
	fmt.Fprintf(out, "heard:   %s\n", heard)
	fmt.Fprintf(out, "overlap: %.0f%%\n", 100*wordOverlap(*text, heard))
	return nil
}

func runSpeakers(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("speakers", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := common.client().Speakers(ctx)
	if err != nil {
		return err
	}
	for _, s := range resp.Speakers {
		marker := " "
		if s == resp.Selected {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, s)
	}
	return nil
}

// wordOverlap is the share of words in want that also occur in got,
// ignoring case and punctuation
func wordOverlap(want, got string) float64 {
	wantWords := words(want)
	if len(wantWords) == 0 {
		return 0
	}
	seen := make(map[string]int)
	for _, w := range words(got) {
		seen[w]++
	}
	hits := 0
	for _, w := range wantWords {
		if seen[w] > 0 {
			seen[w]--
			hits++
		}
	}
	return float64(hits) / float64(len(wantWords))
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
