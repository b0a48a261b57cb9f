// Package yadisk is a client for the parts of the Yandex.Disk REST API the
// backup uses: token probing, idempotent folder provisioning and
// upload-by-URL.
//
//	disk := yadisk.NewClientFromConfig(cfg, log)
//	if _, err := disk.EnsureFolder(ctx, "VK_Photos_1_2024-05-01"); err != nil {
//	    return err
//	}
//	_, err := disk.UploadFromURL(ctx, yadisk.ResourcePath(folder, "10.jpg"), photoURL)
package yadisk
