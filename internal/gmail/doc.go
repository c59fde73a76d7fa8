// Package gmail provides a client for interacting with the Gmail API.
//
// The client covers the operations the auto-reply bot needs:
//   - Listing messages matching a query (with pagination)
//   - Fetching and parsing full messages into a plain Message value
//   - Sending replies threaded to the source message
//   - Marking messages as handled (clearing the UNREAD label)
//
// Authentication uses the cached OAuth token from the google package;
// run the auth command once to obtain it.
//
// Example usage:
//
//	ctx := context.Background()
//	client, err := gmail.NewClient(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msgs, err := client.ListMessages("is:unread", 50)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, m := range msgs {
//	    full, err := client.FetchMessage(m.Id)
//	    if err != nil {
//	        continue
//	    }
//	    _, err = client.ReplyToMessage(full, "Thanks, I'll get back to you.")
//	}
package gmail
