/*
Package iso7816 implements the ISO/IEC 7816-4 interindustry layer shared by both
ends of a contact card exchange.

The terminal side builds command APDUs (SelectByAID, ReadRecord), sends them
through a Client and inspects the resulting Trace. The card side decodes the
same bytes with ParseCommandAPDU and answers with a ResponseAPDU whose status
word comes from the SW constants of this package.

# Status words

Every response ends with SW1 SW2. Two families drive the transport behaviour
handled by Client:

  - 61XX: the command succeeded and XX bytes wait for a GET RESPONSE.
  - 6CXX: the Le field was wrong and XX is the exact length to ask for.

# Example

	cls, _ := iso7816.NewClass(0x00)
	client := iso7816.NewClient(card)

	trace, err := client.Send(iso7816.SelectByAID(cls, aid))
	if err != nil {
	    return err
	}
	fmt.Println(trace.Describe())
	if trace.Status() != iso7816.SWNoError {
	    return fmt.Errorf("select failed: %s", trace.Status().Description())
	}
	fci := trace.Data()
*/
package iso7816
