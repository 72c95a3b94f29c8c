package app

import (
	"context"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	utilserrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/component-base/version"
	"k8s.io/component-base/version/verflag"
	"k8s.io/klog/v2"
	"os"
	"os/signal"
	"rflinkgateway/cmd/gateway/options"
	"rflinkgateway/pkg/generic"
	baseoptions "rflinkgateway/pkg/generic/options"
	"rflinkgateway/pkg/web"
	"syscall"
)

const (
	ComponentGateway = "rflink-gateway"
)

func NewGatewayCmd() *cobra.Command {
	cleanFlagSet := pflag.NewFlagSet(ComponentGateway, pflag.ContinueOnError)
	o := options.NewDefaultOptions()
	cmd := &cobra.Command{
		Use:                ComponentGateway,
		Long:               `The rflink gateway bridges an RFLink serial gateway and an MQTT broker: device reports are published as topic messages and write topics are sent to the devices.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// cobra's flag parsing is disabled, the clean flag set owns every flag
			if err := cleanFlagSet.Parse(args); err != nil {
				klog.ErrorS(err, "Failed to parse flag")
				_ = cmd.Usage()
				os.Exit(1)
			}
			if cmds := cleanFlagSet.Args(); len(cmds) > 0 {
				klog.ErrorS(nil, "Unknown command", "command", cmds[0])
				_ = cmd.Usage()
				os.Exit(1)
			}

			baseoptions.PrintHelpAndExitIfRequested(cmd, cleanFlagSet)
			baseoptions.PrintDefaultConfigAndExitIfRequested(options.NewDefaultOptions(), cleanFlagSet)
			verflag.PrintAndExitIfRequested()

			if err := complete(o, args); err != nil {
				return err
			}

			klog.InfoS("Starting gateway", "version", version.Get())
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, o)
		},
	}

	verflag.AddFlags(cleanFlagSet)
	o.AddFlags(cleanFlagSet)
	o.AddBaseFlags(cmd, cleanFlagSet)

	return cmd
}

// complete applies the config file below the command line flags and validates the result.
func complete(o *options.Options, args []string) error {
	if err := baseoptions.ParseAndApplyConfigFile(o, args); err != nil {
		return err
	}
	if errs := options.Validate(o); len(errs) != 0 {
		return utilserrors.NewAggregate(errs)
	}
	return nil
}

// run serves until ctx is done, then gives the links and the HTTP server
// o.Wait to stop.
func run(ctx context.Context, o *options.Options) error {
	c, err := o.Config()
	if err != nil {
		return err
	}

	server, err := web.NewServer(generic.Default(), o, c)
	if err != nil {
		return err
	}

	exit, err := server.Serve(ctx)
	if err != nil {
		return err
	}
	klog.V(1).InfoS("Gateway started", "port", o.Port, "serialDevice", o.Serial.Device, "broker", o.BrokerURL())

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), o.Wait.Duration)
	defer cancel()
	exit(shutdownCtx)
	klog.V(1).InfoS("Gateway stopped")
	return nil
}
