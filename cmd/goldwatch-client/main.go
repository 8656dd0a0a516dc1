package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"goldwatch-alarm/internal/identity"

	"github.com/go-resty/resty/v2"
)

// 命令行客户端：用持久化的设备标识调用报警 API（联调用）
//
// 用法:
//
//	goldwatch-client [-server http://localhost:8090] prices
//	goldwatch-client list
//	goldwatch-client create -code XAUUSD -name "Gold Spot" -side bid -cond at_or_above -target 2500
//	goldwatch-client delete -id <alarm_id>
//	goldwatch-client triggered
//	goldwatch-client permission [-set granted|denied]
func main() {
	serverURL := flag.String("server", "http://localhost:8090", "alarm service base URL")
	idPath := flag.String("id-file", "", "device identity file (default ~/.goldwatch/device_id)")
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	store, err := identity.NewFileStore(*idPath)
	if err != nil {
		log.Fatalf("Failed to open identity store: %v", err)
	}
	deviceID := identity.NewProvider(store).GetOrCreate()

	client := resty.New().
		SetBaseURL(*serverURL).
		SetTimeout(10 * time.Second).
		SetHeader("X-Device-Id", deviceID)

	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	switch cmd {
	case "prices":
		get(client, "/data/api/v1/prices")
	case "list":
		get(client, "/data/api/v1/alarms")
	case "triggered":
		get(client, "/data/api/v1/alarms/triggered")
	case "create":
		createAlarm(client, args)
	case "delete":
		deleteAlarm(client, args)
	case "permission":
		permission(client, args)
	default:
		log.Fatalf("Unknown command: %s", cmd)
	}
}

func createAlarm(client *resty.Client, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	code := fs.String("code", "", "product code")
	name := fs.String("name", "", "product name")
	side := fs.String("side", "bid", "price side: bid or ask")
	cond := fs.String("cond", "at_or_above", "condition: at_or_above or at_or_below")
	target := fs.Float64("target", 0, "target price")
	_ = fs.Parse(args)

	resp, err := client.R().
		SetBody(map[string]any{
			"product_code": *code,
			"product_name": *name,
			"price_side":   *side,
			"condition":    *cond,
			"target_price": *target,
		}).
		Post("/data/api/v1/alarms")
	printResponse(resp, err)
}

func deleteAlarm(client *resty.Client, args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "alarm id")
	_ = fs.Parse(args)

	if *id == "" {
		log.Fatal("-id is required")
	}

	resp, err := client.R().Delete("/data/api/v1/alarms/" + *id)
	printResponse(resp, err)
}

func permission(client *resty.Client, args []string) {
	fs := flag.NewFlagSet("permission", flag.ExitOnError)
	set := fs.String("set", "", "set permission state: granted or denied")
	_ = fs.Parse(args)

	if *set == "" {
		get(client, "/data/api/v1/notifications/permission")
		return
	}

	resp, err := client.R().
		SetBody(map[string]any{"state": *set}).
		Put("/data/api/v1/notifications/permission")
	printResponse(resp, err)
}

func get(client *resty.Client, path string) {
	resp, err := client.R().Get(path)
	printResponse(resp, err)
}

func printResponse(resp *resty.Response, err error) {
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}

	var pretty json.RawMessage
	if json.Unmarshal(resp.Body(), &pretty) == nil {
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))
		return
	}
	fmt.Println(string(resp.Body()))
}
