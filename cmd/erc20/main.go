package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	rpcFlag = cli.StringFlag{
		Name:   "rpc, r",
		Usage:  "Network address of the Neo RPC server",
		EnvVar: "ERC20_RPC",
	}
	contractFlag = cli.StringFlag{
		Name:   "contract, c",
		Usage:  "Address or script hash (LE) of the token contract",
		EnvVar: "ERC20_CONTRACT",
	}
	walletFlag = cli.StringFlag{
		Name:   "wallet, w",
		Usage:  "Path to the NEP-6 wallet of the deployer",
		EnvVar: "ERC20_WALLET",
	}
	passwordFlag = cli.StringFlag{
		Name:   "password",
		Usage:  "Password of the wallet account",
		EnvVar: "ERC20_WALLET_PASSWORD",
	}
	debugFlag = cli.BoolFlag{
		Name:  "debug, d",
		Usage: "Enable debug logging",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "erc20"
	app.Usage = "Fixed-supply token contract operator tool"
	app.Flags = []cli.Flag{debugFlag}
	app.Commands = []cli.Command{
		deployCommand(),
		balanceCommand(),
		auditCommand(),
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	if c.GlobalBool("debug") {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	return l, nil
}

func requireFlags(c *cli.Context, names ...string) error {
	for _, name := range names {
		if c.String(name) == "" {
			return cli.NewExitError(fmt.Sprintf("missing required flag --%s", name), 1)
		}
	}
	return nil
}
