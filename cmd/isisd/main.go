// Command isisd runs a single IS-IS instance over one or more interfaces.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	"github.com/go-isis/isisd/codec"
	"github.com/go-isis/isisd/config"
	"github.com/go-isis/isisd/internal/xlog"
	"github.com/go-isis/isisd/link"
	"github.com/go-isis/isisd/linklayer"
	"github.com/go-isis/isisd/snapshot"
	"github.com/go-isis/isisd/update"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	isTypeFlag = flag.String("is-type", "l1", "IS level(s) to run: l1, l2, or l12")
	areaIDFlag = flag.String("areaid", "49.0001", "Dotted-hex area address")
	sysIDFlag  = flag.String("sysid", "", "Dotted-hex 6-byte system ID (required)")
	priority   = flag.Int("priority", 64, "DIS election priority on LAN circuits")
	promAddr   = flag.String("prom", ":9090", "Prometheus metrics export address and port")
	verbose    = flag.Bool("v", false, "Enable verbose debug logging")
	snapPath   = flag.String("snapshot-file", "", "If set, periodically dump the LSDB to this file")
	snapEvery  = flag.Duration("snapshot-interval", 30*time.Second, "How often to write the LSDB snapshot file")
)

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)

	xlog.Verbose = *verbose

	if flag.NArg() == 0 {
		log.Fatal("isisd: at least one interface argument is required, e.g. isisd -sysid 0102.0304.0506 eth0 eth1:p2p")
	}

	isType, err := config.ParseCircuitType(*isTypeFlag)
	rtx.Must(err, "bad -is-type")

	areaID, err := config.ParseISOAddress(*areaIDFlag)
	rtx.Must(err, "bad -areaid")

	sysID, err := config.ParseSysID(*sysIDFlag)
	rtx.Must(err, "bad -sysid")

	hostname, err := os.Hostname()
	rtx.Must(err, "could not determine hostname")

	inst := config.Instance{
		IsType:   isType,
		AreaID:   areaID,
		SysID:    sysID,
		Priority: uint8(*priority),
		Hostname: hostname,
	}

	promSrv := prometheusx.MustStartPrometheus(*promAddr)
	defer promSrv.Close()

	var processes [2]*update.Process
	if inst.IsType&config.L1 != 0 {
		processes[0] = update.NewProcess(0)
	}
	if inst.IsType&config.L2 != 0 {
		processes[1] = update.NewProcess(1)
	}

	specs := config.ParseInterfaceSpecs(flag.Args())
	circuits := make([]*linklayer.Circuit, 0, len(specs))
	for i, spec := range specs {
		circuit, err := linklayer.NewCircuit(spec.IfName)
		rtx.Must(err, "could not bring up circuit %s", spec.IfName)

		cfg := link.Config{
			IfName:         spec.IfName,
			CircuitType:    uint8(inst.IsType),
			SystemID:       inst.SysID,
			AreaAddrs:      []codec.AreaAddress{codec.AreaAddress(inst.AreaID)},
			Hostname:       inst.Hostname,
			Priority:       inst.Priority,
			IsP2P:          spec.P2P,
			LocalCircuitID: byte(i + 1),
		}
		lk := link.NewLink(cfg, circuit, processes)
		circuit.Attach(lk)
		lk.Start()
		circuits = append(circuits, circuit)

		log.Printf("isisd: circuit %s up (p2p=%v)", spec.IfName, spec.P2P)
	}

	if *snapPath != "" {
		stop := make(chan struct{})
		defer close(stop)
		errs := snapshot.RunPeriodic(*snapPath, processes, *snapEvery, stop)
		go func() {
			for err := range errs {
				log.Printf("isisd: snapshot: %v", err)
			}
		}()
	}

	poller := linklayer.NewPoller(circuits)
	log.Fatal(poller.Run())
}
