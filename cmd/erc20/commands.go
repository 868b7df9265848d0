package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/nspcc-dev/erc20-contract/contracts"
	"github.com/nspcc-dev/erc20-contract/deploy"
	"github.com/nspcc-dev/erc20-contract/internal/replay"
	"github.com/nspcc-dev/erc20-contract/rpc/erc20"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

func deployCommand() cli.Command {
	return cli.Command{
		Name:      "deploy",
		Usage:     "Deploy token contract with the given initial supply",
		ArgsUsage: "<dir with contract.nef and manifest.json>",
		Flags: []cli.Flag{
			rpcFlag,
			walletFlag,
			passwordFlag,
			cli.StringFlag{
				Name:  "supply",
				Usage: "Initial supply allocated to the owner",
			},
			cli.StringFlag{
				Name:  "owner",
				Usage: "Owner of the initial supply, deployer by default",
			},
		},
		Action: func(c *cli.Context) error {
			if err := requireFlags(c, "rpc", "wallet", "supply"); err != nil {
				return err
			}
			if c.NArg() != 1 {
				return cli.NewExitError("expected directory with compiled contract", 1)
			}

			log, err := newLogger(c)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			supply, ok := new(big.Int).SetString(c.String("supply"), 10)
			if !ok {
				return fmt.Errorf("invalid supply '%s'", c.String("supply"))
			}

			var owner *util.Uint160
			if s := c.String("owner"); s != "" {
				acc, err := parseAccount(s)
				if err != nil {
					return fmt.Errorf("owner: %w", err)
				}
				owner = &acc
			}

			ctr, err := contracts.ReadDir(c.Args().First())
			if err != nil {
				return fmt.Errorf("read compiled contract: %w", err)
			}

			b, err := newRemoteBlockchain(context.Background(), c.String("rpc"), c.String("wallet"), c.String("password"))
			if err != nil {
				return err
			}
			defer b.close()

			addr, err := deploy.Deploy(context.Background(), deploy.Prm{
				Logger:        log,
				Blockchain:    b.rpc,
				Actor:         b.actor,
				Contract:      ctr,
				InitialSupply: supply,
				Owner:         owner,
			})
			if err != nil {
				return err
			}

			fmt.Println(addr.StringLE())

			return nil
		},
	}
}

func balanceCommand() cli.Command {
	return cli.Command{
		Name:      "balance",
		Usage:     "Print balance of the account and total supply",
		ArgsUsage: "<account>",
		Flags:     []cli.Flag{rpcFlag, contractFlag},
		Action: func(c *cli.Context) error {
			if err := requireFlags(c, "rpc", "contract"); err != nil {
				return err
			}
			if c.NArg() != 1 {
				return cli.NewExitError("expected account", 1)
			}

			acc, err := parseAccount(c.Args().First())
			if err != nil {
				return err
			}

			contract, err := parseAccount(c.String("contract"))
			if err != nil {
				return fmt.Errorf("contract: %w", err)
			}

			b, err := newRemoteReader(context.Background(), c.String("rpc"))
			if err != nil {
				return err
			}
			defer b.Close()

			rd := erc20.NewReader(invoker.New(b, nil), contract)

			supply, err := rd.TotalSupply()
			if err != nil {
				return fmt.Errorf("read total supply: %w", err)
			}

			balance, err := rd.BalanceOf(acc)
			if err != nil {
				return fmt.Errorf("read balance: %w", err)
			}

			fmt.Printf("Balance: %s\nTotal supply: %s\n", balance, supply)

			return nil
		},
	}
}

func auditCommand() cli.Command {
	return cli.Command{
		Name:      "audit",
		Usage:     "Replay token history into local replica and compare it with the chain",
		ArgsUsage: "[<account>...]",
		Flags: []cli.Flag{
			rpcFlag,
			contractFlag,
			cli.StringFlag{
				Name:  "db",
				Usage: "Replica database path, in-memory replica if empty",
			},
			cli.StringFlag{
				Name:  "db-type",
				Usage: "Replica database type: leveldb or boltdb",
				Value: dbconfig.LevelDB,
			},
			cli.BoolFlag{
				Name:  "state",
				Usage: "Also check all holders found in the contract storage (node must keep state roots)",
			},
			cli.Uint64Flag{
				Name:  "commit-every",
				Usage: "Commit replica each N processed blocks",
				Value: 1000,
			},
		},
		Action: func(c *cli.Context) error {
			if err := requireFlags(c, "rpc", "contract"); err != nil {
				return err
			}

			contract, err := parseAccount(c.String("contract"))
			if err != nil {
				return fmt.Errorf("contract: %w", err)
			}

			commitEvery, err := commitInterval(c.Uint64("commit-every"))
			if err != nil {
				return err
			}

			accounts := make([]util.Uint160, 0, c.NArg())
			for _, s := range c.Args() {
				acc, err := parseAccount(s)
				if err != nil {
					return err
				}
				accounts = append(accounts, acc)
			}

			log, err := newLogger(c)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			log = log.With(
				zap.Stringer("run", uuid.New()),
				zap.String("contract", contract.StringLE()))

			st, err := openReplicaStore(c.String("db-type"), c.String("db"))
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			b, err := newRemoteReader(context.Background(), c.String("rpc"))
			if err != nil {
				return err
			}
			defer b.Close()

			if c.Bool("state") {
				holders, err := onChainHolders(b, contract)
				if err != nil {
					return fmt.Errorf("list on-chain holders: %w", err)
				}
				log.Info("on-chain holders listed", zap.Int("count", len(holders)))
				accounts = append(accounts, holders...)
			}

			return audit(context.Background(), log, st, b, erc20.NewReader(invoker.New(b, nil), contract),
				contract, commitEvery, accounts)
		},
	}
}

func audit(ctx context.Context, log *zap.Logger, st storage.Store, chain replay.Chain, rd replay.Reader,
	contract util.Uint160, commitEvery uint32, accounts []util.Uint160) error {
	r, err := replay.Open(st, log)
	if err != nil {
		return err
	}

	err = r.Sync(ctx, chain, contract, func(index uint32) error {
		if commitEvery == 0 || (index+1)%commitEvery != 0 {
			return nil
		}
		log.Debug("committing replica", zap.Uint32("block", index))
		return r.Commit(st)
	})
	if err != nil {
		return fmt.Errorf("sync replica: %w", err)
	}

	if err = r.Commit(st); err != nil {
		return fmt.Errorf("commit replica: %w", err)
	}

	if r.Ledger() == nil {
		return errors.New("token contract has not been deployed yet")
	}

	return r.Verify(rd, accounts...)
}

// commitInterval checks number of blocks between replica commits. Zero
// means commit at the end only.
func commitInterval(n uint64) (uint32, error) {
	if n > math.MaxUint32 {
		return 0, fmt.Errorf("commit interval %d exceeds %d blocks", n, uint32(math.MaxUint32))
	}
	return uint32(n), nil
}

func openReplicaStore(typ, path string) (storage.Store, error) {
	if path == "" {
		return storage.NewMemoryStore(), nil
	}

	var cfg dbconfig.DBConfiguration

	switch typ {
	case dbconfig.LevelDB:
		cfg.Type = dbconfig.LevelDB
		cfg.LevelDBOptions.DataDirectoryPath = path
	case dbconfig.BoltDB:
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create replica dir: %w", err)
		}
		cfg.Type = dbconfig.BoltDB
		cfg.BoltDBOptions.FilePath = path
	default:
		return nil, fmt.Errorf("unsupported replica database type '%s'", typ)
	}

	st, err := storage.NewStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open replica database: %w", err)
	}

	return st, nil
}
