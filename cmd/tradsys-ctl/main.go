// Command tradsys-ctl is the operator tool for the shared-memory
// pages a running tradsys-core publishes (spec §6): inspecting and
// adjusting the risk/paper-exchange parameters, the per-symbol tuning
// table, and the trading-enabled flag stored in those pages. tradsys-core
// publishes only its heartbeat there and does not read these fields
// back, so a change made with this tool does not alter the limits or
// trading state of a running engine.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abdoElHodaky/tradSys/internal/shm"
)

// pct formats a fractional rate as a percentage string without the
// binary float noise a raw Println would show (e.g. 0.1 -> "10.00%", not
// "9.999999999999998%").
func pct(v float64) string {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// bps formats a basis-point rate to two decimal places.
func bps(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

const (
	appName    = "tradsys-ctl"
	appVersion = "v1.0.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	verb := os.Args[1]
	args := os.Args[2:]

	switch verb {
	case "-version", "--version":
		fmt.Printf("%s %s\n", appName, appVersion)
		return
	case "status":
		runStatus(args)
	case "get":
		runGet(args)
	case "set":
		runSet(args)
	case "enable":
		runEnable(args, true)
	case "disable":
		runEnable(args, false)
	case "list":
		runList(args)
	case "regime_strategy":
		runRegimeStrategy(args)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `%s - operate a running tradsys-core over shared memory

Usage:
  %s status
  %s get <field>
  %s set <field> <value>
  %s enable
  %s disable
  %s list
  %s regime_strategy <symbol> <slippage_bps> <max_position>

Fields for get/set: daily_loss_pct, max_drawdown_pct, max_notional_pct,
slippage_bps, commission_bps, force_mode.
`, appName, appName, appName, appName, appName, appName, appName, appName)
}

func openConfig() (*shm.SharedConfig, func(), error) {
	region, err := shm.OpenRW("trader_config", shm.SharedConfigSize)
	if err != nil {
		return nil, nil, fmt.Errorf("open shared config (is tradsys-core running?): %w", err)
	}
	sc := shm.NewSharedConfig(region)
	if !sc.Valid() {
		region.Close()
		return nil, nil, fmt.Errorf("shared config page has an unrecognized magic/version")
	}
	return sc, func() { region.Close() }, nil
}

func openSymbolConfigs() (*shm.SharedSymbolConfigs, func(), error) {
	region, err := shm.OpenRW("trader_symbol_configs", shm.SharedSymbolConfigsSize)
	if err != nil {
		return nil, nil, fmt.Errorf("open shared symbol configs (is tradsys-core running?): %w", err)
	}
	return shm.NewSharedSymbolConfigs(region), func() { region.Close() }, nil
}

func runStatus(args []string) {
	sc, closeFn, err := openConfig()
	fatalIf(err)
	defer closeFn()

	statusNames := map[uint32]string{
		shm.StatusUnknown: "unknown",
		shm.StatusRunning: "running",
		shm.StatusHalting: "halting",
		shm.StatusHalted:  "halted",
		shm.StatusError:   "error",
	}

	alive := sc.IsAlive(time.Now(), shm.DefaultHeartbeatTimeout)
	fmt.Printf("status:          %s\n", statusNames[sc.Status()])
	fmt.Printf("alive:           %v\n", alive)
	fmt.Printf("trading_enabled: %v\n", sc.TradingEnabled())
	fmt.Printf("force_mode:      %v\n", sc.ForceMode())
	fmt.Printf("sequence:        %d\n", sc.Sequence())
}

func runGet(args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		fatalIf(fmt.Errorf("usage: %s get <field>", appName))
	}

	sc, closeFn, err := openConfig()
	fatalIf(err)
	defer closeFn()

	switch fs.Arg(0) {
	case "daily_loss_pct":
		fmt.Println(pct(sc.DailyLossPct()))
	case "max_drawdown_pct":
		fmt.Println(pct(sc.MaxDrawdownPct()))
	case "max_notional_pct":
		fmt.Println(pct(sc.MaxNotionalPct()))
	case "slippage_bps":
		fmt.Println(bps(sc.SlippageBps()))
	case "commission_bps":
		fmt.Println(bps(sc.CommissionBps()))
	case "force_mode":
		fmt.Println(sc.ForceMode())
	default:
		fatalIf(fmt.Errorf("unknown field %q", fs.Arg(0)))
	}
}

func runSet(args []string) {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 2 {
		fatalIf(fmt.Errorf("usage: %s set <field> <value>", appName))
	}

	sc, closeFn, err := openConfig()
	fatalIf(err)
	defer closeFn()

	field, raw := fs.Arg(0), fs.Arg(1)
	switch field {
	case "daily_loss_pct":
		v := mustFloat(raw)
		sc.SetDailyLossPct(v)
	case "max_drawdown_pct":
		v := mustFloat(raw)
		sc.SetMaxDrawdownPct(v)
	case "max_notional_pct":
		v := mustFloat(raw)
		sc.SetMaxNotionalPct(v)
	case "slippage_bps":
		v := mustFloat(raw)
		sc.SetSlippageBps(v)
	case "commission_bps":
		v := mustFloat(raw)
		sc.SetCommissionBps(v)
	case "force_mode":
		v, err := strconv.ParseBool(raw)
		fatalIf(err)
		sc.SetForceMode(v)
	default:
		fatalIf(fmt.Errorf("unknown field %q", field))
	}
	fmt.Printf("ok (sequence now %d)\n", sc.Sequence())
}

func runEnable(args []string, enabled bool) {
	sc, closeFn, err := openConfig()
	fatalIf(err)
	defer closeFn()

	sc.SetTradingEnabled(enabled)
	fmt.Printf("trading_enabled=%v (sequence now %d)\n", enabled, sc.Sequence())
}

func runList(args []string) {
	sym, closeFn, err := openSymbolConfigs()
	fatalIf(err)
	defer closeFn()

	n := sym.Len()
	fmt.Printf("%-12s %-12s %-12s %-10s %-10s\n", "symbol", "slippage_bps", "max_position", "trades", "wins")
	for i := 0; i < n; i++ {
		fmt.Printf("%-12s %-12d %-12d %-10d %-10d\n",
			sym.NameAt(i), sym.SlippageBps(i), sym.MaxPosition(i), sym.TradeCount(i), sym.WinCount(i))
	}
}

func runRegimeStrategy(args []string) {
	fs := flag.NewFlagSet("regime_strategy", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 3 {
		fatalIf(fmt.Errorf("usage: %s regime_strategy <symbol> <slippage_bps> <max_position>", appName))
	}

	sym, closeFn, err := openSymbolConfigs()
	fatalIf(err)
	defer closeFn()

	name := fs.Arg(0)
	slippage, err := strconv.ParseUint(fs.Arg(1), 10, 64)
	fatalIf(err)
	maxPos, err := strconv.ParseUint(fs.Arg(2), 10, 64)
	fatalIf(err)

	slot, ok := sym.GetOrCreate(name)
	if !ok {
		fatalIf(fmt.Errorf("symbol tuning table is full (max %d entries)", shm.MaxSharedSymbols))
	}
	sym.SetSlippageBps(slot, slippage)
	sym.SetMaxPosition(slot, maxPos)
	fmt.Printf("updated %s: slippage_bps=%d max_position=%d\n", name, slippage, maxPos)
}

func mustFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	fatalIf(err)
	return v
}

func fatalIf(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}
