// Command whatsapp-qr fetches the gateway's pairing QR code so an
// operator can link a new WhatsApp device to the messaging bridge.
package main

import (
	"context"
	"flag"
	"os"

	"sdrsolar/internal/gateway"
	"sdrsolar/platform/config"
	"sdrsolar/platform/logger"
)

func main() {
	out := flag.String("out", "qr.png", "path to write the pairing QR image to")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	log := logger.New(cfg.Env)

	client := gateway.NewClient(cfg, log)

	ctx := context.Background()
	png, err := client.GetLoginQR(ctx, cfg.GetWhatsAppDefaultDeviceID())
	if err != nil {
		log.Error("failed to fetch login qr", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, png, 0o644); err != nil {
		log.Error("failed to write qr image", "path", *out, "error", err)
		os.Exit(1)
	}
	log.Info("pairing qr written, scan it with WhatsApp to link the device", "path", *out)
}
