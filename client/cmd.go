package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"github.com/aep/videolib/api"
	videolib "github.com/aep/videolib/api/go"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"sigs.k8s.io/yaml"
)

var (
	file    string
	address = "http://localhost:3001"

	caCert, clientCert, clientKey string

	title  string
	tags   []string
	params struct {
		sort, order, search, tags, from, to string
		limit, offset                       int
		all                                 bool
	}

	CMD = &cobra.Command{
		Use:   "client",
		Short: "talk to a running video library server",
	}

	listCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List videos",
		Args:    cobra.NoArgs,
		Run:     list,
	}

	getCmd = &cobra.Command{
		Use:   "get [id]",
		Short: "Get a video",
		Args:  cobra.ExactArgs(1),
		Run:   get,
	}

	createCmd = &cobra.Command{
		Use:   "create",
		Short: "Create videos from flags or a file",
		Args:  cobra.NoArgs,
		Run:   create,
	}

	updateCmd = &cobra.Command{
		Use:   "update [id]",
		Short: "Change the title or tags of a video",
		Args:  cobra.ExactArgs(1),
		Run:   update,
	}

	editCmd = &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a video in $EDITOR",
		Args:  cobra.ExactArgs(1),
		Run:   edit,
	}

	deleteCmd = &cobra.Command{
		Use:     "delete [id]",
		Aliases: []string{"rm"},
		Short:   "Delete a video",
		Args:    cobra.ExactArgs(1),
		Run:     del,
	}

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics",
		Args:  cobra.NoArgs,
		Run:   stats,
	}

	tagsCmd = &cobra.Command{
		Use:   "tags",
		Short: "List tags by usage",
		Args:  cobra.NoArgs,
		Run:   listTags,
	}
)

func init() {
	CMD.PersistentFlags().StringVar(&address, "address", address, "Server base url")
	CMD.PersistentFlags().StringVar(&caCert, "ca-cert", "", "CA certificate used to verify the server")
	CMD.PersistentFlags().StringVar(&clientCert, "cert", "", "Client certificate for mTLS")
	CMD.PersistentFlags().StringVar(&clientKey, "key", "", "Client private key for mTLS")

	f := listCmd.Flags()
	f.StringVar(&params.sort, "sort", "", "created_at, title or views")
	f.StringVar(&params.order, "order", "", "asc or desc")
	f.StringVar(&params.search, "search", "", "Title substring")
	f.StringVar(&params.tags, "tags", "", "Comma separated tag filter")
	f.StringVar(&params.from, "from", "", "Created on or after, YYYY-MM-DD or RFC 3339")
	f.StringVar(&params.to, "to", "", "Created on or before, YYYY-MM-DD or RFC 3339")
	f.IntVar(&params.limit, "limit", 0, "Page size, 1 to 100")
	f.IntVar(&params.offset, "offset", 0, "Number of videos to skip")
	f.BoolVar(&params.all, "all", false, "Fetch every page")

	createCmd.Flags().StringVarP(&file, "file", "f", "", "Path to JSON/YAML file with one or more documents, - for stdin")
	createCmd.Flags().StringVar(&title, "title", "", "Title of the new video")
	createCmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag, may be repeated")

	updateCmd.Flags().StringVar(&title, "title", "", "New title")
	updateCmd.Flags().StringSliceVar(&tags, "tag", nil, "Replace tags, may be repeated")

	CMD.AddCommand(listCmd)
	CMD.AddCommand(getCmd)
	CMD.AddCommand(createCmd)
	CMD.AddCommand(updateCmd)
	CMD.AddCommand(editCmd)
	CMD.AddCommand(deleteCmd)
	CMD.AddCommand(statsCmd)
	CMD.AddCommand(tagsCmd)
}

func getClient() (*videolib.Client, error) {
	var opts []videolib.ClientOption
	if caCert != "" || clientCert != "" {
		tc, err := clientTLS(caCert, clientCert, clientKey)
		if err != nil {
			return nil, err
		}
		opts = append(opts, videolib.WithHTTPClient(&http.Client{
			Transport: otelhttp.NewTransport(&http.Transport{TLSClientConfig: tc}),
		}))
	}

	client, err := videolib.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %v", err)
	}
	return client, nil
}

func clientTLS(ca, cert, key string) (*tls.Config, error) {
	tc := &tls.Config{MinVersion: tls.VersionTLS12}

	if ca != "" {
		pem, err := os.ReadFile(ca)
		if err != nil {
			return nil, fmt.Errorf("read ca cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates in %s", ca)
		}
		tc.RootCAs = pool
	}

	if cert != "" {
		pair, err := tls.LoadX509KeyPair(cert, key)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tc.Certificates = []tls.Certificate{pair}
	}

	return tc, nil
}

func mustClient() *videolib.Client {
	client, err := getClient()
	if err != nil {
		log.Fatal(err)
	}
	return client
}

func printYAML(v any) {
	enc, err := yaml.Marshal(v)
	if err != nil {
		log.Fatalf("Failed to encode as YAML: %v", err)
	}
	os.Stdout.Write(enc)
}

func listParams(cmd *cobra.Command) *api.ListParams {
	var p api.ListParams
	set := func(name string, v string) *string {
		if cmd.Flags().Changed(name) {
			return &v
		}
		return nil
	}
	p.Sort = set("sort", params.sort)
	p.Order = set("order", params.order)
	p.Search = set("search", params.search)
	p.Tags = set("tags", params.tags)
	p.DateFrom = set("from", params.from)
	p.DateTo = set("to", params.to)
	if cmd.Flags().Changed("limit") {
		p.Limit = &params.limit
	}
	if cmd.Flags().Changed("offset") {
		p.Offset = &params.offset
	}
	return &p
}

func list(cmd *cobra.Command, args []string) {
	client := mustClient()
	p := listParams(cmd)

	if params.all {
		var videos []api.Video
		for v, err := range client.All(context.Background(), p) {
			if err != nil {
				log.Fatalf("Failed to list videos: %v", err)
			}
			videos = append(videos, *v)
		}
		printYAML(videos)
		return
	}

	rsp, err := client.ListVideos(context.Background(), p)
	if err != nil {
		log.Fatalf("Failed to list videos: %v", err)
	}
	printYAML(rsp)
}

func get(cmd *cobra.Command, args []string) {
	video, err := mustClient().GetVideo(context.Background(), args[0])
	if err != nil {
		log.Fatalf("Failed to get video: %v", err)
	}
	printYAML(video)
}

func create(cmd *cobra.Command, args []string) {
	var reqs []api.CreateVideoRequest
	if file != "" {
		var err error
		reqs, err = parseFile(file)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		if title == "" {
			log.Fatal("either --title or --file is required")
		}
		reqs = append(reqs, api.CreateVideoRequest{Title: title, Tags: tags})
	}

	client := mustClient()
	for _, req := range reqs {
		video, err := client.CreateVideo(context.Background(), req)
		if err != nil {
			log.Fatalf("Failed to create video: %v", err)
		}
		fmt.Println(video.Id)
	}
}

func update(cmd *cobra.Command, args []string) {
	var req api.UpdateVideoRequest
	if cmd.Flags().Changed("title") {
		req.Title = &title
	}
	if cmd.Flags().Changed("tag") {
		req.Tags = &tags
	}
	if req.Title == nil && req.Tags == nil {
		log.Fatal("nothing to update, pass --title or --tag")
	}

	video, err := mustClient().UpdateVideo(context.Background(), args[0], req)
	if err != nil {
		log.Fatalf("Failed to update video: %v", err)
	}
	printYAML(video)
}

func del(cmd *cobra.Command, args []string) {
	err := mustClient().DeleteVideo(context.Background(), args[0])
	if err != nil {
		if videolib.IsNotFound(err) {
			log.Fatalf("video %s does not exist", args[0])
		}
		log.Fatalf("Failed to delete video: %v", err)
	}
}

func stats(cmd *cobra.Command, args []string) {
	s, err := mustClient().Stats(context.Background())
	if err != nil {
		log.Fatalf("Failed to get stats: %v", err)
	}
	printYAML(s)
}

func listTags(cmd *cobra.Command, args []string) {
	t, err := mustClient().Tags(context.Background())
	if err != nil {
		log.Fatalf("Failed to get tags: %v", err)
	}
	for _, tc := range t {
		fmt.Printf("%d\t%s\n", tc.Count, tc.Tag)
	}
}

func edit(cmd *cobra.Command, args []string) {
	client := mustClient()

	video, err := client.GetVideo(context.Background(), args[0])
	if err != nil {
		log.Fatalf("Failed to get video: %v", err)
	}

	// Create temporary file
	tmpfile, err := os.CreateTemp("", "videolib-edit-*.yaml")
	if err != nil {
		log.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	original := editable(video)
	tmpfile.Write(original)
	tmpfile.Close()

	// Open editor
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}
	cmd2 := exec.Command(editor, tmpfile.Name())
	cmd2.Stdin = os.Stdin
	cmd2.Stdout = os.Stdout
	cmd2.Stderr = os.Stderr
	if err := cmd2.Run(); err != nil {
		log.Fatal(err)
	}

	edited, err := os.ReadFile(tmpfile.Name())
	if err != nil {
		log.Fatal(err)
	}

	if strings.TrimSpace(string(edited)) == strings.TrimSpace(string(original)) {
		fmt.Println("Edit cancelled, no changes made")
		return
	}

	req, err := parseEdit(edited)
	if err != nil {
		log.Fatal(err)
	}

	video, err = client.UpdateVideo(context.Background(), args[0], req)
	if err != nil {
		log.Fatalf("Failed to update video: %v", err)
	}
	printYAML(video)
}
