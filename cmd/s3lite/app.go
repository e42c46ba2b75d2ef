package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"pkt.systems/pslog"

	"pkt.systems/s3lite"
)

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvPrefix("S3LITE_LOG_"),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole, MinLevel: pslog.InfoLevel}),
		pslog.WithEnvWriter(os.Stderr),
	).With("app", "s3lite")

	cmd := newRootCommand(logger)
	ctx = withSignalCancel(ctx)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "%s\n", err)
		}
		return 1
	}
	return 0
}

func withSignalCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signals)
	}()
	return ctx
}

func newRootCommand(logger pslog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "s3lite",
		Short:         "GET and PUT objects on S3-compatible stores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("access-key", "", "access key id (S3LITE_ACCESS_KEY)")
	flags.String("secret-key", "", "secret access key (S3LITE_SECRET_KEY)")
	flags.String("session-token", "", "optional STS session token")
	flags.String("region", "", "bucket region (default us-standard)")
	flags.String("endpoint", "", "custom endpoint, e.g. minio.internal:9000")
	flags.String("host", "", "host header override")
	flags.Bool("path-style", false, "use path-style addressing")
	flags.Bool("insecure", false, "use plain http (local testing)")
	flags.Duration("timeout", s3lite.DefaultTimeout, "per-request timeout")
	flags.Int("max-connections", s3lite.DefaultMaxConnections, "connection pool size")

	flags.VisitAll(func(flag *pflag.Flag) {
		if err := viper.BindPFlag(flag.Name, flag); err != nil {
			panic(err)
		}
	})
	viper.SetEnvPrefix("S3LITE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	root.AddCommand(newGetCommand(logger))
	root.AddCommand(newPutCommand(logger))
	root.AddCommand(newProbeCommand(logger))
	return root
}

func bucketOptions() s3lite.Options {
	opts := s3lite.Options{
		AccessKey:       viper.GetString("access-key"),
		SecretAccessKey: viper.GetString("secret-key"),
		SessionToken:    viper.GetString("session-token"),
		Region:          viper.GetString("region"),
		Endpoint:        viper.GetString("endpoint"),
		Host:            viper.GetString("host"),
		PathStyle:       viper.GetBool("path-style"),
		Insecure:        viper.GetBool("insecure"),
		Timeout:         viper.GetDuration("timeout"),
		MaxConnections:  viper.GetInt("max-connections"),
	}
	if opts.AccessKey == "" || opts.SecretAccessKey == "" {
		opts.Credentials = s3lite.DefaultCredentialChain()
	}
	return opts
}

func newGetCommand(logger pslog.Logger) *cobra.Command {
	var ifNoneMatch, output string
	cmd := &cobra.Command{
		Use:   "get <bucket> <key>",
		Short: "Fetch an object to stdout or a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, key := args[0], args[1]
			return withBucket(cmd.Context(), logger, bucket, func(ctx context.Context, cli *s3lite.Client) error {
				start := time.Now()
				res, err := cli.Get(ctx, bucket, key, s3lite.GetOptions{IfNoneMatch: ifNoneMatch})
				if err != nil {
					return err
				}
				if res.NotModified {
					logger.Info("object not modified", "bucket", bucket, "key", key,
						"etag", res.Properties.ETag)
					return nil
				}
				logger.Info("object fetched", "bucket", bucket, "key", key,
					"size", humanize.IBytes(uint64(len(res.Body))),
					"etag", res.Properties.ETag, "elapsed", time.Since(start))
				if output == "" || output == "-" {
					_, err = os.Stdout.Write(res.Body)
					return err
				}
				return os.WriteFile(output, res.Body, 0o644)
			})
		},
	}
	cmd.Flags().StringVar(&ifNoneMatch, "if-none-match", "", "conditional get with this etag")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the object here instead of stdout")
	return cmd
}

func newPutCommand(logger pslog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <bucket> <key> [file]",
		Short: "Upload a file or stdin as an object",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, key := args[0], args[1]
			var data []byte
			var err error
			if len(args) == 3 && args[2] != "-" {
				data, err = os.ReadFile(args[2])
			} else {
				data, err = readAllStdin()
			}
			if err != nil {
				return err
			}
			return withBucket(cmd.Context(), logger, bucket, func(ctx context.Context, cli *s3lite.Client) error {
				start := time.Now()
				props, err := cli.Put(ctx, bucket, key, data)
				if err != nil {
					return err
				}
				logger.Info("object stored", "bucket", bucket, "key", key,
					"size", humanize.IBytes(uint64(len(data))),
					"etag", props.ETag, "elapsed", time.Since(start))
				return nil
			})
		},
	}
	return cmd
}

func newProbeCommand(logger pslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <bucket>",
		Short: "Open and close a bucket to verify access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket := args[0]
			return withBucket(cmd.Context(), logger, bucket, func(ctx context.Context, cli *s3lite.Client) error {
				logger.Info("bucket reachable", "bucket", bucket)
				return nil
			})
		},
	}
}

// withBucket opens the bucket from the shared flags, runs fn, and always
// closes the bucket afterwards.
func withBucket(ctx context.Context, logger pslog.Logger, bucket string,
	fn func(context.Context, *s3lite.Client) error) error {

	cli := s3lite.New(s3lite.WithLogger(logger))
	if err := cli.Open(ctx, bucket, bucketOptions()); err != nil {
		return err
	}
	defer func() {
		if err := cli.Close(context.Background(), bucket); err != nil {
			logger.Warn("closing bucket", "bucket", bucket, "error", err.Error())
		}
	}()
	return fn(ctx, cli)
}

func readAllStdin() ([]byte, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return data, nil
}
