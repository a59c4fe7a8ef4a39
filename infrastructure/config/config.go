package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/btcsuite/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/domain/rewards/rewardsdb"
	"github.com/smartcash/smartrewardsd/infrastructure/logger"
)

const (
	defaultConfigFilename    = "smartrewardsd.conf"
	defaultDataDirname       = "data"
	defaultLogLevel          = "info"
	defaultLogDirname        = "logs"
	defaultLogFilename       = "smartrewardsd.log"
	defaultErrLogFilename    = "smartrewardsd_err.log"
	defaultDBEngine          = rewardsdb.EngineLevelDB
	defaultRewardsDBCacheMiB = 64
	defaultFeed              = "-"
	defaultRPCHost           = "127.0.0.1"
)

// Commands of the daemon.
const (
	CommandSync  = "sync"
	CommandQuery = "query"
)

var (
	// DefaultAppDir is the default home directory for smartrewardsd.
	DefaultAppDir = btcutil.AppDataDir("smartrewardsd", false)

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	knownDBEngines    = []string{rewardsdb.EngineLevelDB, rewardsdb.EngineBadger}
)

// Flags defines the configuration options shared by all commands.
//
// See loadConfig for details on the configuration load process.
type Flags struct {
	ConfigFile     string `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDir         string `short:"b" long:"appdir" description:"Directory to store data"`
	LogDir         string `long:"logdir" description:"Directory to log output."`
	LogRollSizeKB  int64  `long:"logrollsize" description:"Roll log files once they reach this size in KB"`
	LogMaxRolls    int    `long:"logmaxrolls" description:"Number of rolled log files to keep"`
	LogCompress    bool   `long:"logcompress" description:"Compress rolled log files"`
	DebugLevel     string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	DBEngine       string `long:"dbengine" description:"Storage engine of the rewards database {leveldb, badger}"`
	RewardsDBCache int    `long:"rewardsdbcache" description:"Cache size of the rewards database in MiB"`
	MetricsFile    string `long:"metricsfile" description:"Write metrics in the prometheus text format to this file"`
	Profile        string `long:"profile" description:"Serve profiling and metrics data over HTTP on the given port -- NOTE port must be between 1024 and 65535"`
	NetworkFlags
}

// SyncFlags defines the options of the sync command.
type SyncFlags struct {
	Feed          string `long:"feed" description:"File to read chain notifications from, - for stdin"`
	RewardsResync bool   `long:"rewardsresync" description:"Rebuild the rewards database from genesis if it can not be used"`
	CompactDB     bool   `long:"compactdb" description:"Compact the rewards database once the feed ends"`
	RPCListen     string `long:"rpclisten" description:"Interface/port to serve smartrewards queries on (default 127.0.0.1 and the network's RPC port)"`
	DisableRPC    bool   `long:"norpc" description:"Do not serve smartrewards queries"`
}

// QueryFlags defines the options of the query command.
type QueryFlags struct {
	ChainHeight uint64 `long:"chainheight" description:"Height of the chain tip for --offline queries, used to tell whether the rewards database is synced"`
	IgnoreSync  bool   `long:"ignoresync" description:"Answer even if the rewards database is not synced"`
	RPCServer   string `short:"s" long:"rpcserver" description:"Sync daemon to send the query to (default 127.0.0.1 and the network's RPC port)"`
	Offline     bool   `long:"offline" description:"Read the rewards database directly instead of querying the sync daemon; fails while the daemon runs"`
	Args        struct {
		Command   string   `positional-arg-name:"command" description:"current, history, payouts, snapshot or check" required:"yes"`
		Arguments []string `positional-arg-name:"argument"`
	} `positional-args:"yes"`
}

// Config defines the configuration options for smartrewardsd.
//
// See loadConfig for details on the configuration load process.
type Config struct {
	*Flags
	Command string
	Sync    *SyncFlags
	Query   *QueryFlags

	// DataDir is the network specific directory of the rewards database.
	DataDir string
}

// LogFile returns the path of the main log file.
func (cfg *Config) LogFile() string {
	return filepath.Join(cfg.LogDir, defaultLogFilename)
}

// LogRotation returns the rotation settings of the log files.
func (cfg *Config) LogRotation() logger.Rotation {
	return logger.Rotation{
		ThresholdKB: cfg.LogRollSizeKB,
		MaxRolls:    cfg.LogMaxRolls,
		Compress:    cfg.LogCompress,
	}
}

// ErrLogFile returns the path of the error log file.
func (cfg *Config) ErrLogFile() string {
	return filepath.Join(cfg.LogDir, defaultErrLogFilename)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func validDBEngine(engine string) bool {
	for _, knownEngine := range knownDBEngines {
		if engine == knownEngine {
			return true
		}
	}
	return false
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:     defaultConfigFile,
		AppDir:         DefaultAppDir,
		DebugLevel:     defaultLogLevel,
		LogRollSizeKB:  logger.DefaultRotation.ThresholdKB,
		LogMaxRolls:    logger.DefaultRotation.MaxRolls,
		DBEngine:       defaultDBEngine,
		RewardsDBCache: defaultRewardsDBCacheMiB,
	}
}

// newConfigParser returns a new command line flags parser.
func newConfigParser(cfg *Config, options flags.Options) (*flags.Parser, error) {
	parser := flags.NewParser(cfg.Flags, options)
	_, err := parser.AddCommand(CommandSync, "Apply chain notifications to the rewards database",
		"Reads connect, disconnect and tip notifications and applies them to the rewards database.", cfg.Sync)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	_, err = parser.AddCommand(CommandQuery, "Query the rewards database",
		"Answers one smartrewards command: current, history, payouts <round>, snapshot <round> or check <address>.",
		cfg.Query)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return parser, nil
}

func newConfig() *Config {
	return &Config{
		Flags: defaultFlags(),
		Sync:  &SyncFlags{Feed: defaultFeed},
		Query: &QueryFlags{},
	}
}

// LoadConfig parses the command line and the configuration file.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
func loadConfig(args []string) (*Config, error) {
	// Pre-parse the command line options to see if an alternative config
	// file was specified. Any errors aside from the help message error can
	// be ignored here since they will be caught by the final parse below.
	preCfg := newConfig()
	preParser, err := newConfigParser(preCfg, flags.HelpFlag)
	if err != nil {
		return nil, err
	}
	_, err = preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			return nil, err
		}
	}

	cfg := newConfig()
	parser, err := newConfigParser(cfg, flags.Default)
	if err != nil {
		return nil, err
	}

	// Load additional config from file.
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
			return nil, err
		}
		if preCfg.ConfigFile != defaultConfigFile {
			return nil, errors.Wrapf(err, "failed reading the config file")
		}
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}
	if parser.Active == nil {
		return nil, errors.Errorf("a command is required: %s or %s", CommandSync, CommandQuery)
	}
	cfg.Command = parser.Active.Name

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	// Parse, validate, and set debug log level(s).
	err = logger.ParseAndSetDebugLevels(cfg.DebugLevel)
	if err != nil {
		err := errors.Errorf("%s", err)
		fmt.Fprintln(os.Stderr, err)
		return nil, err
	}

	if !validDBEngine(cfg.DBEngine) {
		return nil, errors.Errorf("The specified database engine [%s] is invalid -- "+
			"supported engines %s", cfg.DBEngine, strings.Join(knownDBEngines, ", "))
	}
	if cfg.LogRollSizeKB <= 0 || cfg.LogMaxRolls < 0 {
		return nil, errors.Errorf("Invalid log rotation: roll size %d KB, %d rolls", cfg.LogRollSizeKB, cfg.LogMaxRolls)
	}
	if cfg.RewardsDBCache <= 0 {
		return nil, errors.Errorf("The rewards database cache must be positive, got %d", cfg.RewardsDBCache)
	}

	// Validate profile port number
	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			return nil, errors.Errorf("The profile port must be between 1024 and 65535")
		}
	}

	cfg.Sync.RPCListen, err = normalizeAddress(cfg.Sync.RPCListen, cfg.NetParams().RPCPort)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --rpclisten")
	}
	cfg.Query.RPCServer, err = normalizeAddress(cfg.Query.RPCServer, cfg.NetParams().RPCPort)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --rpcserver")
	}

	// The data and log directories are namespaced per network.
	cfg.AppDir = cleanAndExpandPath(cfg.AppDir)
	cfg.DataDir = filepath.Join(cfg.AppDir, defaultDataDirname, cfg.NetParams().Name)
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.AppDir, defaultLogDirname)
	}
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), cfg.NetParams().Name)
	if cfg.MetricsFile != "" {
		cfg.MetricsFile = cleanAndExpandPath(cfg.MetricsFile)
	}

	return cfg, nil
}

// normalizeAddress returns address with defaultPort added if it has no port.
// An empty address is the local host on defaultPort.
func normalizeAddress(address string, defaultPort string) (string, error) {
	if address == "" {
		return net.JoinHostPort(defaultRPCHost, defaultPort), nil
	}
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return net.JoinHostPort(address, defaultPort), nil
	}
	portNumber, err := strconv.Atoi(port)
	if err != nil || portNumber < 0 || portNumber > 65535 {
		return "", errors.Errorf("%s has an invalid port", address)
	}
	return net.JoinHostPort(host, port), nil
}
