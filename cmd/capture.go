package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/andresmejia3/facebridge/internal/bridge"
	"github.com/andresmejia3/facebridge/internal/surface"
	"github.com/andresmejia3/facebridge/internal/types"
	"github.com/andresmejia3/facebridge/internal/utils"
	"github.com/andresmejia3/facebridge/internal/worker"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// CaptureOptions configures a single capture session against a worker surface.
type CaptureOptions struct {
	ImagePath     string
	VectorPath    string
	OutPath       string
	Timeout       time.Duration
	WorkerCommand string
}

var captureOpts CaptureOptions

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Run one face-capture session against a headless content surface",
	Long: `Starts the content surface worker, registers the reference identity and waits
for the detection result. With neither --image nor --vector the surface runs in
detect-only mode.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if captureOpts.WorkerCommand == "" {
			captureOpts.WorkerCommand = Cfg.Worker.Command
		}
		return runCapture(cmd.Context(), captureOpts)
	},
}

func init() {
	captureCmd.Flags().StringVarP(&captureOpts.ImagePath, "image", "i", "", "File holding the reference image as base64 (data URI prefix allowed)")
	captureCmd.Flags().StringVar(&captureOpts.VectorPath, "vector", "", "File holding the reference feature vector expression, e.g. [0.12, -0.4, ...]")
	captureCmd.Flags().StringVarP(&captureOpts.OutPath, "out", "o", "", "Write the captured frame to this file")
	captureCmd.Flags().DurationVarP(&captureOpts.Timeout, "timeout", "t", 0, "Give up after this long (0 waits until the surface reports)")
	captureCmd.Flags().StringVar(&captureOpts.WorkerCommand, "worker", "", "Content surface command line (default: $WORKER_COMMAND)")
	rootCmd.AddCommand(captureCmd)
}

func runCapture(ctx context.Context, opts CaptureOptions) error {
	image, vector, err := readReference(opts.ImagePath, opts.VectorPath)
	if err != nil {
		utils.ShowError("Failed to read reference identity", err, nil)
		return err
	}

	name, args, err := utils.ParseCommandLine(opts.WorkerCommand)
	if err != nil {
		utils.ShowError("Invalid worker command", err, nil)
		return err
	}

	fmt.Fprintln(os.Stderr, "🚀 Starting content surface...")
	// We use ID 0 for this ad-hoc worker
	w, err := worker.NewContentWorker(0, name, args...)
	if err != nil {
		utils.ShowError("Failed to start content surface", err, nil)
		return err
	}
	defer w.Close()

	client := surface.NewClient(w, Log)
	defer client.Close()

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	loop := bridge.NewLoop(Log)
	go loop.Run(loopCtx)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("📷 Waiting for detection"),
		progressbar.OptionSetWriter(os.Stderr), // Write spinner to Stderr
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	sess, err := bridge.New(bridge.Config{
		ReferenceImage:  image,
		ReferenceVector: vector,
		Surface:         client,
		Prefs:           Prefs,
		Dispatcher:      loop,
		// The terminal is the page here: closing it just clears the spinner.
		Page: bridge.PageCloserFunc(func(context.Context) error {
			return bar.Finish()
		}),
		Logger: Log,
	})
	if err != nil {
		utils.ShowError("Failed to create session", err, nil)
		return err
	}
	fmt.Fprintf(os.Stderr, "🪪 Session %s (identity: %s)\n", sess.ID.String()[:8], sess.Identity().Kind)

	// The channel outlives ctx so teardown can still reach stopCamera after Ctrl+C.
	runErr := make(chan error, 1)
	go func() { runErr <- client.Run(context.Background(), sess.Navigating) }()

	go spin(bar, sess.Done())

	waitCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	select {
	case <-sess.Done():
	case err := <-runErr:
		sess.Teardown(context.Background())
		if err == nil {
			err = errors.New("content surface closed the channel")
		}
		utils.ShowError("Content surface exited before reporting", err, w.Cmd)
		return err
	case <-waitCtx.Done():
		sess.Teardown(context.Background())
		bar.Finish()
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			fmt.Fprintf(os.Stderr, "⏱️  No detection within %s, session closed.\n", opts.Timeout)
		} else {
			fmt.Fprintln(os.Stderr, "🛑 Interrupted, session closed.")
		}
		return waitCtx.Err()
	}

	res := sess.Result()
	// The session records hasvectorimage=N whenever the surface ran without an identity.
	flag, _ := Prefs.Get(ctx, bridge.KeyHasVector)
	fmt.Println(describeOutcome(res.Outcome, flag == bridge.ValueNo))

	if opts.OutPath != "" {
		if res.CapturedImageBase64 == "" {
			fmt.Fprintln(os.Stderr, "⚠️  No captured frame to write.")
			return nil
		}
		if err := writeCapturedImage(opts.OutPath, res.CapturedImageBase64); err != nil {
			utils.ShowError("Failed to save captured frame", err, nil)
			return err
		}
		fmt.Fprintf(os.Stderr, "💾 Captured frame written to %s\n", opts.OutPath)
	}
	return nil
}

// spin animates the indeterminate bar until done is closed.
func spin(bar *progressbar.ProgressBar, done <-chan struct{}) {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			bar.Add(1)
		case <-done:
			return
		}
	}
}

// readReference loads the optional reference files. Vectors are expressions and
// keep their content apart from surrounding whitespace.
func readReference(imagePath, vectorPath string) (image, vector string, err error) {
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return "", "", fmt.Errorf("read reference image: %w", err)
		}
		image = string(data)
	}
	if vectorPath != "" {
		data, err := os.ReadFile(vectorPath)
		if err != nil {
			return "", "", fmt.Errorf("read reference vector: %w", err)
		}
		vector = strings.TrimSpace(string(data))
	}
	return image, vector, nil
}

func describeOutcome(o *types.DetectionOutcome, detectOnly bool) string {
	switch {
	case o == nil:
		return "⚠️  Session ended without a detection result."
	case o.Matched:
		return fmt.Sprintf("✅ Match: %s (confidence %s)", displayName(o), o.Confidence)
	case detectOnly:
		return fmt.Sprintf("👤 Face detected: %s, no reference to compare (confidence %s)", displayName(o), o.Confidence)
	default:
		return fmt.Sprintf("❌ No match: %s (confidence %s)", displayName(o), o.Confidence)
	}
}

func displayName(o *types.DetectionOutcome) string {
	if o.DisplayName == "" {
		return "unknown"
	}
	return o.DisplayName
}

func writeCapturedImage(path, payload string) error {
	data, err := utils.DecodeImage(payload)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
