package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"summarizer/pkg/content"
	"summarizer/pkg/gemini"
	"summarizer/pkg/library"
	"summarizer/pkg/narration"
	"summarizer/pkg/speech"
	"summarizer/pkg/storage"
)

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func cmdAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: summarizer add <url>\n")
	}
	fs.Parse(args)
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	a := newApp(ctx)
	defer a.Close()

	item, err := a.library.Add(ctx, fs.Arg(0))
	var manual *library.ManualInputRequiredError
	switch {
	case errors.As(err, &manual):
		fmt.Fprintf(os.Stderr, "Unable to automatically extract content from: %s\n", manual.URL)
		for _, e := range manual.Errors {
			fmt.Fprintf(os.Stderr, "  - %s\n", e)
		}
		fmt.Fprintf(os.Stderr, "Paste the article text with: summarizer manual %s < article.txt\n", manual.URL)
		os.Exit(2)
	case err != nil:
		a.Close()
		fatalf("%v", err)
	}

	fmt.Printf("Summary created successfully: %s (%s)\n", item.Title, item.ID)
}

func cmdManual(args []string) {
	fs := flag.NewFlagSet("manual", flag.ExitOnError)
	file := fs.String("file", "", "Read the article text from this file instead of stdin")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: summarizer manual [flags] <url>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}

	var (
		text []byte
		err  error
	)
	if *file != "" {
		text, err = os.ReadFile(*file)
	} else {
		text, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fatalf("failed to read content: %v", err)
	}

	ctx := context.Background()
	a := newApp(ctx)
	defer a.Close()

	item, err := a.library.AddManual(ctx, fs.Arg(0), string(text))
	if err != nil {
		a.Close()
		fatalf("%v", err)
	}
	fmt.Printf("Summary created successfully: %s (%s)\n", item.Title, item.ID)
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	typ := fs.String("type", "", "Only show this content type: article or video")
	unplayed := fs.Bool("unplayed", false, "Only show items that have not been played")
	fs.Parse(args)

	ctx := context.Background()
	a := newApp(ctx)
	defer a.Close()

	var (
		items []storage.Item
		err   error
	)
	switch *typ {
	case "":
		items, err = a.library.Playlist(ctx, *unplayed)
	case string(content.TypeArticle), string(content.TypeVideo):
		items, err = a.store.GetByType(ctx, content.ContentType(*typ))
	default:
		a.Close()
		fatalf("invalid -type value %q (use article or video)", *typ)
	}
	if err != nil {
		a.Close()
		fatalf("%v", err)
	}

	if len(items) == 0 {
		fmt.Println("No summaries yet. Add one with: summarizer add <url>")
		return
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tTITLE\tSOURCE\tADDED\tLENGTH\tPLAYED")
	for _, item := range items {
		if *unplayed && item.IsPlayed {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%v\n",
			item.ID, item.Type, item.Title, item.Source,
			library.FormatDate(item.DateAdded, now), library.FormatDuration(item.EstimatedDuration), item.IsPlayed)
	}
	w.Flush()
}

func cmdDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: summarizer delete <id>\n")
		os.Exit(1)
	}

	ctx := context.Background()
	a := newApp(ctx)
	defer a.Close()

	if err := a.store.Delete(ctx, fs.Arg(0)); err != nil {
		a.Close()
		fatalf("%v", err)
	}
	fmt.Println("Summary deleted")
}

func cmdClear(args []string) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Confirm deleting all data")
	fs.Parse(args)
	if !*yes {
		fatalf("refusing to delete all data without -yes")
	}

	ctx := context.Background()
	a := newApp(ctx)
	defer a.Close()

	if err := a.store.ClearAll(ctx); err != nil {
		a.Close()
		fatalf("%v", err)
	}
	fmt.Println("All data cleared")
}

func (a *app) newEngine(ctx context.Context) *narration.Engine {
	speaker := speech.NewESpeak(a.cfg.Narration.Binary)
	if err := speaker.Available(ctx); err != nil {
		a.Close()
		fatalf("%v", err)
	}
	engine := narration.New(speaker, a.store,
		narration.WithLanguage(a.cfg.Narration.Language),
		narration.WithInterItemPause(a.cfg.InterItemPause()),
		narration.WithProgressInterval(a.cfg.ProgressInterval()),
	)
	engine.ApplySettings(a.library.LoadSettings(ctx))
	return engine
}

func cmdVoices(args []string) {
	fs := flag.NewFlagSet("voices", flag.ExitOnError)
	test := fs.Int("test", -1, "Speak a test phrase with the voice at this index")
	fs.Parse(args)

	ctx := context.Background()
	a := newApp(ctx)
	defer a.Close()

	engine := a.newEngine(ctx)
	defer engine.Close()

	voices := engine.Voices()
	if *test < 0 {
		current := engine.Settings().VoiceIndex
		for i, v := range voices {
			marker := " "
			if i == current {
				marker = "*"
			}
			fmt.Printf("%s %2d  %s (%s)\n", marker, i, v.Name, v.Lang)
		}
		return
	}

	if !engine.SetVoice(*test) {
		a.Close()
		fatalf("no voice at index %d", *test)
	}
	done := make(chan struct{}, 1)
	engine.Subscribe(narration.ListenerFuncs{EventFunc: func(e narration.Event) {
		if e.Type == narration.EventEnd || e.Type == narration.EventError {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	}})
	if err := engine.TestVoice(); err != nil {
		a.Close()
		fatalf("%v", err)
	}
	<-done
}

func cmdSettings(args []string) {
	fs := flag.NewFlagSet("settings", flag.ExitOnError)
	rate := fs.Float64("rate", 1.0, "Speech rate (0.1 - 10)")
	pitch := fs.Float64("pitch", 1.0, "Speech pitch (0 - 2)")
	voice := fs.Int("voice", 0, "Voice index as listed by the voices command")
	autoplay := fs.Bool("autoplay", true, "Play the next item automatically")
	apiKey := fs.String("api-key", "", "Validate and save a Gemini API key")
	fs.Parse(args)

	ctx := context.Background()
	a := newApp(ctx)
	defer a.Close()

	s := a.library.LoadSettings(ctx)
	changed := false
	fs.Visit(func(f *flag.Flag) {
		changed = true
		switch f.Name {
		case "rate":
			s.Rate = max(narration.MinRate, min(narration.MaxRate, *rate))
		case "pitch":
			s.Pitch = max(narration.MinPitch, min(narration.MaxPitch, *pitch))
		case "voice":
			s.VoiceIndex = *voice
		case "autoplay":
			s.AutoPlayNext = *autoplay
		}
	})

	if *apiKey != "" {
		testCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := gemini.NewClient(*apiKey, gemini.WithAPIURL(a.cfg.Summarizer.GeminiURL)).TestKey(testCtx)
		cancel()
		if err != nil {
			a.Close()
			fatalf("API key rejected: %v", err)
		}
		if err := a.store.SaveSetting(ctx, storage.KeyGeminiAPIKey, *apiKey); err != nil {
			a.Close()
			fatalf("%v", err)
		}
		fmt.Println("API key is valid and saved")
	}

	if changed {
		if err := a.library.SaveSettings(ctx, s); err != nil {
			a.Close()
			fatalf("%v", err)
		}
	}

	fmt.Printf("rate:      %.1fx\n", s.Rate)
	fmt.Printf("pitch:     %.1f\n", s.Pitch)
	fmt.Printf("voice:     %d\n", s.VoiceIndex)
	fmt.Printf("autoplay:  %v\n", s.AutoPlayNext)
	fmt.Printf("api key:   %v\n", a.geminiKey(ctx) != "")
}

func cmdPlay(args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	unplayed := fs.Bool("unplayed", false, "Only queue items that have not been played")
	start := fs.Int("start", 0, "Playlist index to start from")
	id := fs.String("id", "", "Play a single item by ID")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: summarizer play [flags]

While playing, type a command and press enter:
  p pause   r resume   n next   b previous   <number> jump   s stop   q quit

Flags:
`)
		fs.PrintDefaults()
	}
	fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(ctx)
	defer a.Close()

	var items []storage.Item
	if *id != "" {
		item, err := a.store.GetByID(ctx, *id)
		if err != nil {
			a.Close()
			fatalf("%v", err)
		}
		items = []storage.Item{*item}
	} else {
		var err error
		items, err = a.library.Playlist(ctx, *unplayed)
		if err != nil {
			a.Close()
			fatalf("%v", err)
		}
	}
	if len(items) == 0 {
		fmt.Println("Nothing to play")
		return
	}

	if *start < 0 || *start >= len(items) {
		a.Close()
		fatalf("start index %d is outside the playlist (0-%d)", *start, len(items)-1)
	}

	engine := a.newEngine(ctx)
	defer engine.Close()

	done := make(chan struct{}, 1)
	finish := func() {
		select {
		case done <- struct{}{}:
		default:
		}
	}
	autoplay := engine.Settings().AutoPlayNext

	engine.Subscribe(narration.ListenerFuncs{
		EventFunc: func(e narration.Event) {
			switch e.Type {
			case narration.EventStart:
				source := "Unknown source"
				if e.Item != nil && e.Item.Source != "" {
					source = e.Item.Source
				}
				fmt.Printf("\n▶ [%d/%d] %s (%s)\n", e.Index+1, len(e.Playlist), e.Title, source)
			case narration.EventPause:
				fmt.Println("\n⏸ paused")
			case narration.EventResume:
				fmt.Println("▶ resumed")
			case narration.EventError:
				fmt.Printf("\nSpeech error: %s\n", e.Error)
			case narration.EventEnd:
				if !autoplay {
					finish()
				}
			case narration.EventPlaylistComplete:
				fmt.Println("\nPlaylist complete")
				finish()
			}
		},
		ProgressFunc: func(p narration.Progress) {
			fmt.Printf("\r  %s / %s  (%3.0f%%)", narration.FormatTime(p.Elapsed), narration.FormatTime(p.Duration), p.Fraction*100)
		},
	})

	if err := engine.PlayPlaylist(items, *start); err != nil {
		a.Close()
		fatalf("%v", err)
	}

	go readControls(engine, finish)

	select {
	case <-ctx.Done():
	case <-done:
	}
	engine.Stop()
	if err := a.library.SaveSettings(context.Background(), engine.Settings()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save settings: %v\n", err)
	}
}

// readControls maps stdin lines to engine operations until q or EOF.
func readControls(engine *narration.Engine, quit func()) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var err error
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "p":
			engine.Pause()
		case "r":
			engine.Resume()
		case "n":
			err = engine.PlayNext()
		case "b":
			err = engine.PlayPrevious()
		case "s":
			engine.Stop()
		case "q":
			quit()
			return
		default:
			if n, convErr := strconv.Atoi(cmd); convErr == nil {
				err = engine.SkipToItem(n - 1)
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "\n%v\n", err)
		}
	}
}
