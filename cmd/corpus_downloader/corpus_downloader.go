package main

import (
	"flag"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/wbrown/byte_bpe/resources"
)

func main() {
	corpusUri := flag.String("corpus", "",
		"corpus URL or s3://bucket/prefix to fetch")
	destPath := flag.String("dest", "corpus.txt",
		"where to write the corpus")
	s3Region := flag.String("s3_region", os.Getenv("AWS_REGION"),
		"region for s3:// corpora")
	flag.Parse()
	if *corpusUri == "" {
		flag.Usage()
		log.Fatal("Must provide -corpus")
	}

	var s3Client resources.S3Client
	if resources.IsS3Uri(*corpusUri) {
		var s3Err error
		if s3Client, s3Err = resources.NewS3Client(*s3Region); s3Err != nil {
			log.Fatal(s3Err)
		}
	}
	written, err := resources.DownloadCorpus(*corpusUri, *destPath, s3Client)
	if err != nil {
		log.Fatalf("Error downloading corpus: %s", err)
	}
	log.Printf("Wrote %s to %s", humanize.Bytes(uint64(written)), *destPath)
}
