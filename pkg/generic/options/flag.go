package options

import (
	"fmt"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
	"os"
	"path/filepath"
	"sigs.k8s.io/yaml"
)

// Optioner is implemented by the options of a command so the config file can
// be applied below its flags.
type Optioner interface {
	AddFlags(*pflag.FlagSet)
	GetBaseOptions() *BaseOptions
}

type BaseOptions struct {
	ConfigFile string               `json:"-"`
	Logging    LoggingConfiguration `json:"logging"`
}

func NewDefaultBaseOptions() BaseOptions {
	return BaseOptions{
		Logging: NewDefaultLoggingConfiguration(),
	}
}

func (bo *BaseOptions) GetBaseOptions() *BaseOptions {
	return bo
}

func (bo *BaseOptions) AddBaseFlags(cmd *cobra.Command, fs *pflag.FlagSet) {
	bo.addConfigFile(fs)
	bo.Logging.BindLoggingFlags(fs)
	addHelpAndUsage(cmd, fs)
	fs.Bool("default-config", false, "Print the default configuration as yaml and exit")
}

func (bo *BaseOptions) addConfigFile(fs *pflag.FlagSet) {
	fs.StringVarP(&bo.ConfigFile, "config", "c", bo.ConfigFile, "Yaml file with the initial configuration, relative paths start at the working directory. Command line flags override values from this file.")
}

func (bo *BaseOptions) ValidateAndApply() error {
	return bo.Logging.ValidateAndApply()
}

func PrintHelpAndExitIfRequested(cmd *cobra.Command, fs *pflag.FlagSet) {
	if requested(fs, "help") {
		_ = cmd.Help()
		os.Exit(0)
	}
}

func PrintDefaultConfigAndExitIfRequested(config interface{}, fs *pflag.FlagSet) {
	if !requested(fs, "default-config") {
		return
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		klog.ErrorS(err, "Failed to marshal default config to yaml")
		os.Exit(1)
	}
	fmt.Println("# Default configuration, every field set to its default value.")
	fmt.Println("# Save it and pass it with --config to start from your own copy.")
	fmt.Printf("\n%s\n", data)
	os.Exit(0)
}

func requested(fs *pflag.FlagSet, name string) bool {
	v, err := fs.GetBool(name)
	if err != nil {
		klog.ErrorS(err, "Flag is not registered as bool", "flag", name)
		os.Exit(1)
	}
	return v
}

func addHelpAndUsage(cmd *cobra.Command, fs *pflag.FlagSet) {
	fs.BoolP("help", "h", false, fmt.Sprintf("help for %s", cmd.Name()))

	// cobra's default UsageFunc and HelpFunc print the global flags too
	const usageFmt = "Usage:\n  %s\n\nFlags:\n%s"
	cmd.SetUsageFunc(func(cmd *cobra.Command) error {
		_, _ = fmt.Fprintf(cmd.OutOrStderr(), usageFmt, cmd.UseLine(), fs.FlagUsagesWrapped(2))
		return nil
	})
	cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n"+usageFmt, cmd.Long, cmd.UseLine(), fs.FlagUsagesWrapped(2))
	})
}

// ParseAndApplyConfigFile loads the config file into o, then parses args again
// so flags given on the command line win over the file.
func ParseAndApplyConfigFile(o Optioner, args []string) error {
	path := o.GetBaseOptions().ConfigFile
	if len(path) == 0 {
		return nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve config file %s", path)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		klog.ErrorS(err, "Failed to read config file", "file", absPath)
		return err
	}
	if err = yaml.Unmarshal(data, o); err != nil {
		klog.ErrorS(err, "Failed to unmarshal config file", "file", absPath)
		return errors.Wrapf(err, "parse config file %s", absPath)
	}

	fs := pflag.NewFlagSet("", pflag.ContinueOnError)
	// short-circuit flags such as --version were handled before the config file was read
	fs.ParseErrorsWhitelist.UnknownFlags = true
	o.AddFlags(fs)
	o.GetBaseOptions().addConfigFile(fs)
	o.GetBaseOptions().Logging.BindLoggingFlags(fs)
	if err = fs.Parse(args); err != nil {
		klog.ErrorS(err, "Failed to apply command line flags over config file")
		return err
	}
	return nil
}
