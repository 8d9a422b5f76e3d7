// Command tradsys-core runs the trading engine: market-data ingest,
// book reconstruction, the paper-exchange simulator, pre-trade risk and
// rate limiting, the halt/flatten controller, and one strategy driving
// order flow through the execution engine. It publishes its liveness
// and configuration over the shared-memory pages spec §6 names and
// serves Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abdoElHodaky/tradSys/internal/account"
	"github.com/abdoElHodaky/tradSys/internal/book"
	"github.com/abdoElHodaky/tradSys/internal/config"
	"github.com/abdoElHodaky/tradSys/internal/exchange"
	"github.com/abdoElHodaky/tradSys/internal/execution"
	"github.com/abdoElHodaky/tradSys/internal/halt"
	"github.com/abdoElHodaky/tradSys/internal/marketdata"
	"github.com/abdoElHodaky/tradSys/internal/metrics"
	"github.com/abdoElHodaky/tradSys/internal/paperexchange"
	"github.com/abdoElHodaky/tradSys/internal/risk"
	"github.com/abdoElHodaky/tradSys/internal/shm"
	"github.com/abdoElHodaky/tradSys/internal/strategy"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/tradsys.yaml", "path to the engine's YAML configuration file")
	symbolsFlag := flag.String("symbols", "BTCUSD,ETHUSD", "comma-separated list of symbols to trade")
	udpAddr := flag.String("feed-addr", "", "UDP address to listen on for the binary feed; empty disables it")
	flag.Parse()

	symbols := strings.Split(*symbolsFlag, ",")

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfgMgr, err := config.NewManager(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	defer cfgMgr.Close()
	cfg := cfgMgr.Current()

	symbolRegistry := risk.NewSymbolRegistry()
	symbolTable := marketdata.NewSymbolTable(symbols)
	for _, name := range symbols {
		symbolRegistry.Register(name)
	}
	symbolName := func(idx uint32) string {
		if int(idx) < len(symbols) {
			return symbols[idx]
		}
		return ""
	}

	metricsReg := metrics.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Metrics.Enabled {
		metricsReg.Serve(ctx, cfg.Metrics.Addr, logger)
	}

	shmPages, closeShm := openSharedMemory(cfg, symbols, logger)
	defer closeShm()

	riskMgr := risk.NewManager(risk.EnhancedRiskConfig{
		InitialCapital:  cfg.Risk.InitialCapital,
		DailyLossPct:    cfg.Risk.DailyLossPct,
		MaxDrawdownPct:  cfg.Risk.MaxDrawdownPct,
		MaxNotionalPct:  cfg.Risk.MaxNotionalPct,
		MaxOrderSize:    cfg.Risk.MaxOrderSize,
		MaxAggregatePos: cfg.Risk.MaxAggregatePos,
		PriceScale:      cfg.Paper.PriceScale,
	}, len(symbols))

	rateLimiter := risk.NewRateLimiter(risk.RateLimiterConfig{
		Enabled:            cfg.Risk.RateLimitEnabled,
		GlobalPerSecond:    cfg.Risk.GlobalPerSecond,
		PerTraderPerSecond: cfg.Risk.PerTraderPerSecond,
		MaxActiveOrders:    cfg.Risk.MaxActiveOrders,
	})

	ledger := account.NewLedger(uint64(cfg.Risk.InitialCapital))

	paperExch := exchange.NewPaperExchange(paperexchange.Config{
		SlippageBps:        cfg.Paper.SlippageBps,
		CommissionBps:      cfg.Paper.CommissionBps,
		PriceScale:          cfg.Paper.PriceScale,
		QueuePositionModel: cfg.Paper.QueuePositionModel,
	}, symbolName)

	bookFactory := func(symbol uint32) book.Config {
		return book.Config{Symbol: symbol, PriceBase: 0, PriceRange: 1 << 20}
	}
	mdHandler := marketdata.NewHandler(marketdata.BookFactory(bookFactory))

	haltCtl := halt.NewController(halt.Config{
		MaxRetries: cfg.Halt.MaxRetries,
		Alert: func(reason, message string) {
			logger.Warn("trading halted", zap.String("reason", reason), zap.String("message", message))
			if shmPages.eventLog != nil {
				shmPages.eventLog.Write(tunerEventHalt, 0, 0, 0, time.Now().UnixNano(), []byte(reason))
			}
		},
		CancelAll: func() bool {
			logger.Info("halt: cancel-all requested (no venue connection tracked outside the paper exchange)")
			return true
		},
		Positions: func() []halt.Position {
			positions := make([]halt.Position, 0, len(symbols))
			for i := range symbols {
				qty := riskMgr.Position(risk.SymbolIndex(i))
				if qty == 0 {
					continue
				}
				positions = append(positions, halt.Position{Symbol: uint32(i), Quantity: qty})
			}
			return positions
		},
		Flatten: func(pos halt.Position) bool {
			side := paperexchange.Sell
			qty := pos.Quantity
			if qty < 0 {
				side = paperexchange.Buy
				qty = -qty
			}
			var refPrice uint32
			if top := mdHandler.TopOfBook(pos.Symbol); top != nil {
				if bestBid, ok := top.BestBid(); ok {
					refPrice = bestBid.Price
				}
			}
			if _, err := paperExch.SubmitMarketOrder(pos.Symbol, side, float64(qty), refPrice); err != nil {
				logger.Error("flatten order failed", zap.Uint32("symbol", pos.Symbol), zap.Error(err))
				return false
			}
			return true
		},
	})

	execEngine := execution.NewEngine(riskMgr, rateLimiter, ledger, paperExch, haltCtl.CanTrade, func() int64 {
		return time.Now().UnixMilli()
	})

	paperExch.SetFillCallback(func(orderID uint64, symbolName string, side paperexchange.Side, filledQty float64, fillPrice uint32, commission uint64) {
		idx, ok := symbolRegistry.Lookup(symbolName)
		if !ok {
			return
		}
		metricsReg.Fills.WithLabelValues(symbolName, sideLabel(side)).Inc()
		execEngine.Settle(orderID, idx, side, filledQty, fillPrice, commission)
		if shmPages.symbolConfigs != nil {
			if slot, ok := shmPages.symbolConfigs.Lookup(symbolName); ok {
				shmPages.symbolConfigs.IncrementTradeCount(slot)
			}
		}
		if shmPages.eventLog != nil {
			shmPages.eventLog.Write(tunerEventFill, uint32(idx), int64(fillPrice), int64(filledQty), time.Now().UnixNano(), nil)
		}
	})
	paperExch.SetSlippageCallback(func(orderID uint64, slippage int64) {
		metricsReg.SlippagePaid.Observe(float64(slippage))
	})

	strat := strategy.NewThresholdStrategy(strategy.ThresholdConfig{})

	if *udpAddr != "" {
		go runFeedListener(ctx, *udpAddr, symbolTable, mdHandler, logger)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	var trader uint32 = 1
	tradingDay := time.Now().UTC().YearDay()
	warnedPools := make(map[string]bool)

	// checkPoolHealth polls each symbol's order/level pool occupancy
	// (spec §4.2 "Pool discipline"): a warning-threshold breach logs
	// once per pool until it recovers, a critical-threshold breach halts
	// the engine outright (spec: "Pool exhaustion is fatal to the
	// trading engine (triggers halt)").
	checkPoolHealth := func() {
		for i, name := range symbols {
			ob := mdHandler.Book(uint32(i))
			if ob == nil {
				continue
			}
			pools := map[string]book.PoolStats{
				"order": ob.OrderPoolStats(),
				"level": ob.LevelPoolStats(),
			}
			for kind, stats := range pools {
				free := stats.FreeFraction()
				key := name + ":" + kind
				metricsReg.PoolFreeFraction.WithLabelValues(name, kind).Set(free)

				if free <= cfg.Halt.PoolCriticalFreeFraction {
					haltCtl.Halt("PoolCritical", fmt.Sprintf("%s pool for %s at %.1f%% free", kind, name, free*100))
					continue
				}
				if free <= cfg.Halt.PoolWarningFreeFraction {
					if !warnedPools[key] {
						warnedPools[key] = true
						logger.Warn("pool nearing exhaustion", zap.String("symbol", name), zap.String("pool", kind), zap.Float64("free_fraction", free))
					}
				} else {
					warnedPools[key] = false
				}
			}
		}
	}

runLoop:
	for {
		select {
		case <-quit:
			logger.Info("shutdown signal received")
			break runLoop
		case <-ticker.C:
			execEngine.CheckTimeouts(time.Now().UnixMilli())
			metricsReg.HaltState.Set(float64(haltCtl.State()))
			if shmPages.config != nil {
				shmPages.config.PublishHeartbeat(uint32(os.Getpid()), time.Now())
			}

			if today := time.Now().UTC().YearDay(); today != tradingDay {
				tradingDay = today
				riskMgr.NewTradingDay()
			}

			checkPoolHealth()

			for i, name := range symbols {
				idx := risk.SymbolIndex(i)
				top := mdHandler.TopOfBook(uint32(i))
				if top == nil || top.State != book.TopOfBookReady {
					continue
				}
				strat.OnTick(top)
				sig := strat.Generate(top, strategy.Position{Symbol: uint32(i)}, strategy.RegimeUnknown)
				if sig.Action == strategy.ActionNone {
					continue
				}
				bestBid, _ := top.BestBid()
				intent, ok := execution.BuildIntent(sig, trader, idx, uint32(i), bestBid.Price, 2000)
				if !ok {
					continue
				}
				if _, err := execEngine.Submit(intent); err != nil {
					logger.Debug("order submission rejected", zap.String("symbol", name), zap.Error(err))
					metricsReg.OrdersRejected.WithLabelValues(err.Error()).Inc()
					continue
				}
				metricsReg.OrdersSubmitted.WithLabelValues(name, sideLabel(intent.Side)).Inc()
			}
		}
	}

	cancel()
	logger.Info("tradsys-core stopped")
}

func sideLabel(side paperexchange.Side) string {
	if side == paperexchange.Sell {
		return "sell"
	}
	return "buy"
}

// tunerEventFill identifies a fill record in the shared event log (spec
// §4.5 kinds are consumer-defined; the tuner only needs fills and halts).
const (
	tunerEventFill = 1
	tunerEventHalt = 2
)

// sharedPages bundles the three shared-memory pages the engine publishes
// (spec §4.5/§6): live config, per-symbol tuning, and the event log.
type sharedPages struct {
	config        *shm.SharedConfig
	symbolConfigs *shm.SharedSymbolConfigs
	eventLog      *shm.SharedEventLog
}

// openSharedMemory creates (or re-attaches) the shared-memory pages
// under /dev/shm. shm.Create joins names under its own base directory,
// so the leading slash in the configured paths is stripped first.
func openSharedMemory(cfg *config.Config, symbols []string, logger *zap.Logger) (*sharedPages, func()) {
	pages := &sharedPages{}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	configRegion, err := shm.Create(trimShmName(cfg.SharedMem.ConfigPath), shm.SharedConfigSize)
	if err != nil {
		logger.Warn("failed to create shared config page, continuing without IPC", zap.Error(err))
	} else {
		pages.config = shm.NewSharedConfig(configRegion)
		pages.config.Init()
		closers = append(closers, func() { configRegion.Close() })
	}

	symRegion, err := shm.Create(trimShmName(cfg.SharedMem.SymbolConfigsPath), shm.SharedSymbolConfigsSize)
	if err != nil {
		logger.Warn("failed to create shared symbol-config page", zap.Error(err))
	} else {
		pages.symbolConfigs = shm.NewSharedSymbolConfigs(symRegion)
		pages.symbolConfigs.Init()
		for _, name := range symbols {
			pages.symbolConfigs.GetOrCreate(name)
		}
		closers = append(closers, func() { symRegion.Close() })
	}

	logRegion, err := shm.Create(trimShmName(cfg.SharedMem.EventLogPath), shm.SharedEventLogSize)
	if err != nil {
		logger.Warn("failed to create shared event log page", zap.Error(err))
	} else {
		pages.eventLog = shm.NewSharedEventLog(logRegion)
		pages.eventLog.Init()
		closers = append(closers, func() { logRegion.Close() })
	}

	return pages, closeAll
}

func trimShmName(path string) string {
	return strings.TrimPrefix(path, "/")
}

// runFeedListener is the feed ingest thread (spec §5): it reads UDP
// datagrams and decodes each one straight into the reconstruction
// handler on this goroutine. Decode and apply both happen here; no ring
// buffer sits between them.
func runFeedListener(ctx context.Context, addr string, table *marketdata.SymbolTable, handler *marketdata.Handler, logger *zap.Logger) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		logger.Error("failed to start feed listener", zap.Error(err))
		return
	}
	defer conn.Close()

	decoder := &marketdata.BinaryDecoder{Resolver: table}
	buf := make([]byte, 1500)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				logger.Warn("feed read error", zap.Error(err))
				continue
			}
		}
		decoder.DecodePacket(buf[:n], handler, time.Now().UnixNano())
	}
}
